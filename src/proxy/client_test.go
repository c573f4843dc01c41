package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marketloop/gateway/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerAttachedToForwardedRequests(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	c := New("gig", srv.URL)
	c.SetBearer("session-token")

	status, body, err := c.Get("/api/v1/gig/123")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "Bearer session-token", gotAuth)
}

func TestNoBearerWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := New("order", srv.URL)
	_, _, err := c.Get("/orders")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestRegistryPropagatesTokenToAllClients(t *testing.T) {
	r := NewRegistry(config.ServicesConfig{
		AuthURL: "http://auth:4001",
		GigURL:  "http://gig:4002",
	})
	r.SetBearerAll("tok")

	assert.Equal(t, "tok", r.Get("auth").Bearer())
	assert.Equal(t, "tok", r.Get("gig").Bearer())
	assert.Nil(t, r.Get("order"), "unconfigured services are skipped")
}
