package hub

import (
	"sync"

	"github.com/marketloop/gateway/src/types"
	"github.com/rs/zerolog"
)

// FanoutBridge publishes broadcasts to the other gateway replicas.
// Defined here to avoid circular imports with the bridge package.
type FanoutBridge interface {
	Publish(msg types.Message) error
	Available() bool
}

// Hub owns all client-facing WebSocket connections. Every broadcast
// reaches every connected client on this replica, and is mirrored to
// the other replicas through the attached fan-out bridge.
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	incoming   chan types.Message
	broadcast  chan types.Message
	localCast  chan types.Message // messages from the fan-out bridge, no re-publish

	handlers  map[string]types.EventHandler
	onConnect []func(string)
	onDisconn []func(string)

	bridge FanoutBridge
	mu     sync.RWMutex
	logger zerolog.Logger
	done   chan struct{}
}

// New creates a new Hub instance.
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan types.Message, 256),
		broadcast:  make(chan types.Message, 256),
		localCast:  make(chan types.Message, 256),
		handlers:   make(map[string]types.EventHandler),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// SetBridge attaches the cross-replica fan-out bridge. Broadcasts are
// then also published to every other gateway replica.
func (h *Hub) SetBridge(b FanoutBridge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bridge = b
}

// BroadcastToLocal delivers a message from the fan-out bridge to local
// clients only. It does not re-publish, preventing infinite propagation.
func (h *Hub) BroadcastToLocal(msg types.Message) {
	h.localCast <- msg
}

// Broadcast emits a message to all clients on all replicas.
func (h *Hub) Broadcast(msg types.Message) {
	h.broadcast <- msg
}

// Run starts the hub event loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.incoming:
			h.handleMessage(msg)
		case msg := <-h.broadcast:
			h.publishToBridge(msg)
			h.broadcastToClients(msg)
		case msg := <-h.localCast:
			h.broadcastToClients(msg)
		case <-h.done:
			return
		}
	}
}

// Stop halts the hub event loop.
func (h *Hub) Stop() {
	close(h.done)
}

// Register queues a client for registration.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister queues a client for removal.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.logger.Info().Str("client_id", c.ID).Msg("client registered")

	for _, cb := range h.onConnect {
		cb(c.ID)
	}
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	h.mu.Unlock()

	c.Close()
	h.logger.Info().Str("client_id", c.ID).Msg("client unregistered")

	for _, cb := range h.onDisconn {
		cb(c.ID)
	}
}
