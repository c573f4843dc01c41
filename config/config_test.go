package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":4000", cfg.Server.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "gateway:ws:", cfg.Redis.Prefix)
	assert.Equal(t, 1000, cfg.Socket.MaxConnections)
	assert.Empty(t, cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":8080")
	t.Setenv("REDIS_ADDR", "redis.example.com:6380")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_WS_PREFIX", "test:ws:")
	t.Setenv("CHAT_WS_URL", "ws://chat:4005/socket")
	t.Setenv("ORDER_WS_URL", "ws://order:4006/socket")
	t.Setenv("JWT_SECRET", "topsecret")
	t.Setenv("GIG_BASE_URL", "http://gig:4002")

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "redis.example.com:6380", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "test:ws:", cfg.Redis.Prefix)
	assert.Equal(t, "ws://chat:4005/socket", cfg.Upstream.ChatURL)
	assert.Equal(t, "ws://order:4006/socket", cfg.Upstream.OrderURL)
	assert.Equal(t, "topsecret", cfg.Auth.JWTSecret)
	assert.Equal(t, "http://gig:4002", cfg.Services.GigURL)
}

func TestFromEnvInvalidInt(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, 0, cfg.Redis.DB) // falls back to default
}
