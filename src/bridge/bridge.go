package bridge

import "github.com/marketloop/gateway/src/types"

// Bridge mirrors broadcasts issued on this gateway replica to clients
// connected to every other replica.
type Bridge interface {
	// Publish sends a message to all other replicas.
	Publish(msg types.Message) error

	// Start establishes the publish and subscribe connections and
	// begins relaying. The gateway must not accept client traffic if
	// Start fails: presence views would silently diverge across
	// replicas.
	Start() error

	// Stop shuts down the bridge connection.
	Stop() error

	// Available reports whether the bridge is connected and operational.
	Available() bool
}

// BroadcastTarget is implemented by the Hub to receive messages
// relayed from other replicas.
type BroadcastTarget interface {
	BroadcastToLocal(msg types.Message)
}
