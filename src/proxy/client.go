package proxy

import (
	"fmt"
	"sync"

	"github.com/valyala/fasthttp"
)

// Client forwards REST calls to one backend service. Once a session
// token is attached, every outbound request carries it as an
// Authorization bearer header.
type Client struct {
	name    string
	baseURL string
	http    *fasthttp.Client

	mu    sync.RWMutex
	token string
}

// New creates a forwarding client for the backend service at baseURL.
func New(name, baseURL string) *Client {
	return &Client{
		name:    name,
		baseURL: baseURL,
		http:    &fasthttp.Client{Name: "gateway-proxy"},
	}
}

// Name returns the backend service name.
func (c *Client) Name() string { return c.name }

// SetBearer attaches the session token to all subsequent requests.
func (c *Client) SetBearer(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Bearer returns the currently attached session token, if any.
func (c *Client) Bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Do forwards a request and returns the backend's status and body.
func (c *Client) Do(method, path string, body []byte) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if tok := c.Bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if len(body) > 0 {
		req.SetBody(body)
	}

	if err := c.http.Do(req, resp); err != nil {
		return 0, nil, fmt.Errorf("forward to %s: %w", c.name, err)
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return resp.StatusCode(), out, nil
}

// Get forwards a GET request.
func (c *Client) Get(path string) (int, []byte, error) {
	return c.Do(fasthttp.MethodGet, path, nil)
}

// Post forwards a POST request with a JSON body.
func (c *Client) Post(path string, body []byte) (int, []byte, error) {
	return c.Do(fasthttp.MethodPost, path, body)
}

// Put forwards a PUT request with a JSON body.
func (c *Client) Put(path string, body []byte) (int, []byte, error) {
	return c.Do(fasthttp.MethodPut, path, body)
}

// Delete forwards a DELETE request.
func (c *Client) Delete(path string) (int, []byte, error) {
	return c.Do(fasthttp.MethodDelete, path, nil)
}
