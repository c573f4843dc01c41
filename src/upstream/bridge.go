package upstream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/marketloop/gateway/src/types"
	"github.com/rs/zerolog"
)

// Broadcaster receives events forwarded from an upstream service.
// Implemented by the Hub.
type Broadcaster interface {
	Broadcast(msg types.Message)
}

// Connection states of a bridge.
const (
	StateDisconnected int32 = iota
	StateConnecting
	StateConnected
)

// Bridge maintains one outbound, auto-reconnecting WebSocket
// connection to an upstream service's event stream. Events whose name
// is in the bridge's known set are forwarded verbatim to the
// broadcaster, in the order received. A bridge never gives up: every
// disconnect or dial error is logged and followed by a reconnect
// attempt with capped exponential backoff.
type Bridge struct {
	name   string
	url    string
	events map[string]struct{}
	target Broadcaster
	logger zerolog.Logger
	dialer *websocket.Dialer

	minBackoff time.Duration
	maxBackoff time.Duration

	state  atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a bridge to the upstream service at url. Only events
// named in the given set are relayed.
func New(name, url string, events []string, target Broadcaster, logger zerolog.Logger) *Bridge {
	known := make(map[string]struct{}, len(events))
	for _, e := range events {
		known[e] = struct{}{}
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Bridge{
		name:       name,
		url:        url,
		events:     known,
		target:     target,
		logger:     logger.With().Str("component", "upstream-bridge").Str("upstream", name).Logger(),
		dialer:     websocket.DefaultDialer,
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins the connect/relay loop in a goroutine.
func (b *Bridge) Start() {
	b.wg.Add(1)
	go b.run()
}

// Stop ends the relay loop and closes any open connection.
func (b *Bridge) Stop() {
	b.cancel()
	b.wg.Wait()
}

// State returns the current connection state.
func (b *Bridge) State() int32 {
	return b.state.Load()
}

func (b *Bridge) run() {
	defer b.wg.Done()

	backoff := b.minBackoff
	for {
		if b.ctx.Err() != nil {
			return
		}

		b.state.Store(StateConnecting)
		conn, _, err := b.dialer.DialContext(b.ctx, b.url, nil)
		if err != nil {
			b.state.Store(StateDisconnected)
			if b.ctx.Err() != nil {
				return
			}
			b.logger.Error().Err(err).Dur("retry_in", backoff).Msg("upstream connect failed")
			if !b.sleep(backoff) {
				return
			}
			backoff = min(backoff*2, b.maxBackoff)
			continue
		}

		b.state.Store(StateConnected)
		b.logger.Info().Str("url", b.url).Msg("upstream socket connected")
		backoff = b.minBackoff

		b.readLoop(conn)
		b.state.Store(StateDisconnected)
	}
}

// readLoop relays events until the connection drops.
func (b *Bridge) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	// Unblock the read when Stop is called.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-b.ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var msg types.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if b.ctx.Err() == nil {
				b.logger.Error().Err(err).Msg("upstream socket disconnected")
			}
			return
		}
		if _, known := b.events[msg.Event]; !known {
			b.logger.Debug().Str("event", msg.Event).Msg("ignoring unknown upstream event")
			continue
		}
		b.target.Broadcast(msg)
	}
}

// sleep waits for d or until the bridge is stopped. Reports whether
// the bridge should keep running.
func (b *Bridge) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-b.ctx.Done():
		return false
	}
}
