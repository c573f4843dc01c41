package hub

import (
	"github.com/marketloop/gateway/src/types"
)

// handleMessage routes a client-originated event to its registered
// handler. Handlers make store round trips and re-enter Broadcast, so
// they must never run on the loop goroutine: a slow store call would
// stall relay for every client, and a handler's Broadcast send could
// fill the loop's own channel and deadlock it. Each message therefore
// runs in its own goroutine, and a failing or panicking handler never
// takes down the loop or any other client's connection.
func (h *Hub) handleMessage(msg types.Message) {
	h.mu.RLock()
	handler, ok := h.handlers[msg.Event]
	h.mu.RUnlock()

	if !ok {
		h.logger.Debug().Str("event", msg.Event).Msg("no handler")
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error().
					Interface("panic", r).
					Str("event", msg.Event).
					Str("client_id", msg.ClientID).
					Msg("handler panicked")
			}
		}()

		if err := handler(msg.ClientID, msg); err != nil {
			h.logger.Error().Err(err).Str("event", msg.Event).Msg("handler error")
		}
	}()
}

// broadcastToClients delivers a message to every client on this replica.
func (h *Hub) broadcastToClients(msg types.Message) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- msg:
		default:
			h.logger.Warn().Str("client_id", client.ID).Msg("send buffer full, dropping")
		}
	}
}

// publishToBridge forwards a message to the fan-out bridge if one is attached.
func (h *Hub) publishToBridge(msg types.Message) {
	h.mu.RLock()
	b := h.bridge
	h.mu.RUnlock()

	if b == nil || !b.Available() {
		return
	}
	if err := b.Publish(msg); err != nil {
		h.logger.Error().Err(err).Msg("bridge publish failed")
	}
}
