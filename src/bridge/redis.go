package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/marketloop/gateway/config"
	"github.com/marketloop/gateway/src/types"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// envelope tags a published message with its origin replica. The tag
// is how a subscriber tells its own broadcasts apart from everyone
// else's on the shared channel.
type envelope struct {
	ReplicaID string        `json:"replica_id"`
	Message   types.Message `json:"message"`
}

// RedisBridge fans broadcasts out across gateway replicas over a
// single shared Redis pub/sub channel. Every replica both publishes
// and subscribes; a received message is handed to the local hub only
// when it carries another replica's ID, and is never published again.
type RedisBridge struct {
	client    *redis.Client
	channel   string
	replicaID string
	hub       BroadcastTarget
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	active bool
}

// NewRedisBridge creates a fan-out bridge over the configured Redis instance.
func NewRedisBridge(cfg config.RedisConfig, hub BroadcastTarget, logger zerolog.Logger) *RedisBridge {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisBridge{
		client:    client,
		channel:   cfg.Prefix + "broadcast",
		replicaID: uuid.New().String(),
		hub:       hub,
		logger:    logger.With().Str("component", "fanout-bridge").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start verifies the store is reachable, subscribes to the shared
// channel, and begins relaying. An error here is startup-fatal for
// the gateway: serving clients without fan-out would let presence
// views drift apart between replicas.
func (b *RedisBridge) Start() error {
	if err := b.client.Ping(b.ctx).Err(); err != nil {
		return err
	}

	sub := b.client.Subscribe(b.ctx, b.channel)

	// Receive blocks until Redis confirms the subscription, so after
	// this point no cross-replica broadcast can slip past us.
	if _, err := sub.Receive(b.ctx); err != nil {
		return err
	}

	b.mu.Lock()
	b.active = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.listen(sub)

	b.logger.Info().
		Str("replica_id", b.replicaID).
		Str("channel", b.channel).
		Msg("fan-out bridge started")
	return nil
}

// Publish mirrors a broadcast to all other replicas.
func (b *RedisBridge) Publish(msg types.Message) error {
	data, err := json.Marshal(envelope{ReplicaID: b.replicaID, Message: msg})
	if err != nil {
		return err
	}
	return b.client.Publish(b.ctx, b.channel, data).Err()
}

// Stop unsubscribes and closes the Redis connection.
func (b *RedisBridge) Stop() error {
	b.mu.Lock()
	b.active = false
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

// Available reports whether the bridge is connected.
func (b *RedisBridge) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

func (b *RedisBridge) listen(sub *redis.PubSub) {
	defer b.wg.Done()
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleRedisMessage(msg)
		case <-b.ctx.Done():
			return
		}
	}
}

// handleRedisMessage delivers a subscribed message to local clients,
// unless this replica published it in the first place.
func (b *RedisBridge) handleRedisMessage(msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		b.logger.Error().Err(err).Msg("failed to decode redis message")
		return
	}

	if env.ReplicaID == b.replicaID {
		return
	}

	b.logger.Debug().
		Str("from_replica", env.ReplicaID).
		Str("event", env.Message.Event).
		Msg("relaying broadcast from redis")

	b.hub.BroadcastToLocal(env.Message)
}
