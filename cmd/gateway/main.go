package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/marketloop/gateway/config"
	"github.com/marketloop/gateway/src/bridge"
	"github.com/marketloop/gateway/src/hub"
	"github.com/marketloop/gateway/src/presence"
	"github.com/marketloop/gateway/src/proxy"
	"github.com/marketloop/gateway/src/server"
	"github.com/marketloop/gateway/src/service"
	"github.com/marketloop/gateway/src/upstream"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := presence.New(rdb, logger)

	h := hub.New(logger)
	go h.Run()

	// Cross-replica fan-out must be up before any client connects;
	// without it presence views diverge between replicas.
	fanout := bridge.NewRedisBridge(cfg.Redis, h, logger)
	if err := fanout.Start(); err != nil {
		logger.Fatal().Err(err).Msg("fan-out bridge unavailable, refusing to start")
	}
	h.SetBridge(fanout)

	svc := service.New(h, store, logger)
	svc.Register()

	chatBridge := upstream.NewChat(cfg.Upstream.ChatURL, h, logger)
	orderBridge := upstream.NewOrder(cfg.Upstream.OrderURL, h, logger)
	chatBridge.Start()
	orderBridge.Start()

	registry := proxy.NewRegistry(cfg.Services)
	srv := server.New(cfg, h, registry, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server stopped")
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	}

	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	chatBridge.Stop()
	orderBridge.Stop()
	if err := fanout.Stop(); err != nil {
		logger.Error().Err(err).Msg("fan-out bridge stop error")
	}
	h.Stop()
	_ = rdb.Close()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}
