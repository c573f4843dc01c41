package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all gateway settings, loaded from the environment.
type Config struct {
	Server   ServerConfig
	Socket   SocketConfig
	Redis    RedisConfig
	Upstream UpstreamConfig
	Auth     AuthConfig
	Services ServicesConfig
	LogLevel string
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr      string // listen address, default ":4000"
	ClientURL string // allowed browser origin
}

// SocketConfig holds WebSocket server settings.
type SocketConfig struct {
	MaxConnections  int
	ReadBufferSize  int
	WriteBufferSize int
}

// RedisConfig holds connection settings for the shared store and the
// fan-out pub/sub channel.
type RedisConfig struct {
	Addr     string // Redis address, default "localhost:6379"
	Password string // Redis password, default ""
	DB       int    // Redis database number, default 0
	Prefix   string // fan-out channel prefix, default "gateway:ws:"
}

// UpstreamConfig holds the event-stream endpoints of the upstream services.
type UpstreamConfig struct {
	ChatURL  string
	OrderURL string
}

// AuthConfig holds session token verification settings.
type AuthConfig struct {
	JWTSecret string
}

// ServicesConfig holds base URLs of the backend services REST calls
// are forwarded to.
type ServicesConfig struct {
	AuthURL    string
	BuyerURL   string
	SellerURL  string
	GigURL     string
	MessageURL string
	OrderURL   string
	ReviewURL  string
}

// Default returns a Config with development defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":4000",
			ClientURL: "http://localhost:3000",
		},
		Socket: SocketConfig{
			MaxConnections:  1000,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "gateway:ws:",
		},
		Upstream: UpstreamConfig{
			ChatURL:  "ws://localhost:4005/socket",
			OrderURL: "ws://localhost:4006/socket",
		},
		LogLevel: "debug",
	}
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv loads configuration from environment variables, falling
// back to defaults for any missing values.
func FromEnv() *Config {
	cfg := Default()

	setString(&cfg.Server.Addr, "SERVER_ADDR")
	setString(&cfg.Server.ClientURL, "CLIENT_URL")

	setInt(&cfg.Socket.MaxConnections, "WS_MAX_CONNECTIONS")
	setInt(&cfg.Socket.ReadBufferSize, "WS_READ_BUFFER")
	setInt(&cfg.Socket.WriteBufferSize, "WS_WRITE_BUFFER")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.Redis.Prefix, "REDIS_WS_PREFIX")

	setString(&cfg.Upstream.ChatURL, "CHAT_WS_URL")
	setString(&cfg.Upstream.OrderURL, "ORDER_WS_URL")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")

	setString(&cfg.Services.AuthURL, "AUTH_BASE_URL")
	setString(&cfg.Services.BuyerURL, "BUYER_BASE_URL")
	setString(&cfg.Services.SellerURL, "SELLER_BASE_URL")
	setString(&cfg.Services.GigURL, "GIG_BASE_URL")
	setString(&cfg.Services.MessageURL, "MESSAGE_BASE_URL")
	setString(&cfg.Services.OrderURL, "ORDER_BASE_URL")
	setString(&cfg.Services.ReviewURL, "REVIEW_BASE_URL")

	setString(&cfg.LogLevel, "LOG_LEVEL")

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
