package proxy

import "github.com/marketloop/gateway/config"

// Registry holds one forwarding client per backend service so the
// session token can be propagated to all of them at once.
type Registry struct {
	clients map[string]*Client
}

// NewRegistry builds forwarding clients for every configured backend.
// Services without a configured base URL are skipped.
func NewRegistry(cfg config.ServicesConfig) *Registry {
	r := &Registry{clients: make(map[string]*Client)}
	r.add("auth", cfg.AuthURL)
	r.add("buyer", cfg.BuyerURL)
	r.add("seller", cfg.SellerURL)
	r.add("gig", cfg.GigURL)
	r.add("message", cfg.MessageURL)
	r.add("order", cfg.OrderURL)
	r.add("review", cfg.ReviewURL)
	return r
}

func (r *Registry) add(name, baseURL string) {
	if baseURL == "" {
		return
	}
	r.clients[name] = New(name, baseURL)
}

// Get returns the client for a backend service, or nil.
func (r *Registry) Get(name string) *Client {
	return r.clients[name]
}

// SetBearerAll attaches the session token to every backend client.
func (r *Registry) SetBearerAll(token string) {
	for _, c := range r.clients {
		c.SetBearer(token)
	}
}
