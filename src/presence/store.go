package presence

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// UsersKey is the shared-store key holding the ordered set of
// currently-online user identifiers.
const UsersKey = "loggedInUsers"

// CategoryKeyPrefix prefixes per-user selected-category keys.
const CategoryKeyPrefix = "selectedCategories:"

// announceScript appends a user to the presence list only if absent
// and returns the full membership, all in one atomic round trip. The
// check-then-append must be atomic at the store so two replicas
// announcing the same user cannot both observe "absent" and add twice.
var announceScript = redis.NewScript(`
local pos = redis.call('LPOS', KEYS[1], ARGV[1])
if not pos then
  redis.call('RPUSH', KEYS[1], ARGV[1])
end
return redis.call('LRANGE', KEYS[1], 0, -1)
`)

// Store tracks online users and per-user selected categories in a
// shared Redis instance. It holds no in-process state, so any gateway
// replica may call it. Every operation fails soft: store errors are
// logged and an empty or unchanged result is returned, never an error.
// Presence is best-effort and must not take the relay down with it.
type Store struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

// New creates a presence store over the given Redis client. The client
// establishes its connection lazily on first use and pools it for the
// lifetime of the process.
func New(rdb *redis.Client, logger zerolog.Logger) *Store {
	return &Store{
		rdb:    rdb,
		logger: logger.With().Str("component", "presence-store").Logger(),
	}
}

// Announce adds userID to the presence set if absent and returns the
// current membership in insertion order. Adding an already-present
// user is a no-op besides the lookup. A blank userID is rejected
// without contacting the store.
func (s *Store) Announce(ctx context.Context, key, userID string) []string {
	if userID == "" {
		s.logger.Warn().Str("key", key).Msg("announce: blank user id")
		return nil
	}
	res, err := announceScript.Run(ctx, s.rdb, []string{key}, userID).StringSlice()
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("announce failed")
		return nil
	}
	s.logger.Debug().Str("user", userID).Int("online", len(res)).Msg("user announced")
	return res
}

// Remove deletes one occurrence of userID from the presence set and
// returns the updated membership. Removing an absent user is a no-op.
// A blank userID is rejected without contacting the store.
func (s *Store) Remove(ctx context.Context, key, userID string) []string {
	if userID == "" {
		s.logger.Warn().Str("key", key).Msg("remove: blank user id")
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.LRem(ctx, key, 1, userID)
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("remove failed")
		return nil
	}
	s.logger.Debug().Str("user", userID).Msg("user removed")
	return rangeCmd.Val()
}

// Members returns the current presence set membership in insertion order.
func (s *Store) Members(ctx context.Context, key string) []string {
	res, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("members read failed")
		return nil
	}
	return res
}

// SetCategory unconditionally overwrites the selected category stored
// under key. Failures are logged, never returned.
func (s *Store) SetCategory(ctx context.Context, key, value string) {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("set category failed")
	}
}
