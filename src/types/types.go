package types

import (
	"encoding/json"
	"time"
)

// Message is a named real-time event as it travels between clients,
// upstream services, and gateway replicas. Args carry the raw JSON
// payloads exactly as received so relayed events are never mutated.
type Message struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args,omitempty"`

	// ClientID identifies the local connection a message arrived on.
	// It never leaves the process.
	ClientID string `json:"-"`
}

// New builds a Message by marshaling each argument in order.
func New(event string, args ...any) (Message, error) {
	msg := Message{Event: event}
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return Message{}, err
		}
		msg.Args = append(msg.Args, raw)
	}
	return msg, nil
}

// Arg returns the i-th argument, or nil if the message has fewer args.
func (m Message) Arg(i int) json.RawMessage {
	if i < 0 || i >= len(m.Args) {
		return nil
	}
	return m.Args[i]
}

// EventHandler handles a client-originated event.
type EventHandler func(clientID string, msg Message) error

// ClientInfo holds metadata about a connected WebSocket client.
type ClientInfo struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}
