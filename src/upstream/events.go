package upstream

import "github.com/rs/zerolog"

// Relay event names emitted by the upstream services.
const (
	EventMessageReceived   = "message received"
	EventMessageUpdated    = "message updated"
	EventOrderNotification = "order notification"
)

// NewChat creates the bridge to the chat service event stream.
func NewChat(url string, target Broadcaster, logger zerolog.Logger) *Bridge {
	return New("chat", url, []string{EventMessageReceived, EventMessageUpdated}, target, logger)
}

// NewOrder creates the bridge to the order service event stream.
func NewOrder(url string, target Broadcaster, logger zerolog.Logger) *Bridge {
	return New("order", url, []string{EventOrderNotification}, target, logger)
}
