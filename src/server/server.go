package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/marketloop/gateway/config"
	"github.com/marketloop/gateway/src/hub"
	"github.com/marketloop/gateway/src/proxy"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Server is the client-facing HTTP surface of the gateway: the
// WebSocket upgrade endpoint, health routes, and the middleware that
// propagates session tokens to the backend service clients.
type Server struct {
	app      *fiber.App
	cfg      *config.Config
	hub      *hub.Hub
	registry *proxy.Registry
	logger   zerolog.Logger

	fast *fasthttp.Server
}

// New builds the gateway HTTP server around the given hub.
func New(cfg *config.Config, h *hub.Hub, registry *proxy.Registry, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		hub:      h,
		registry: registry,
		logger:   logger.With().Str("component", "server").Logger(),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: s.errorHandler,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.ClientURL},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))
	app.Use(s.tokenMiddleware)

	app.Get("/", s.handleHealth)
	app.Get("/gateway-health", s.handleHealth)
	app.Get("/ws/info", s.handleInfo)

	app.Use(s.handleNotFound)

	s.app = app
	return s
}

// Listen serves HTTP and WebSocket traffic until Shutdown is called.
// The WebSocket upgrade is handled on the raw fasthttp server since
// Fiber v3 does not expose *fasthttp.RequestCtx.
func (s *Server) Listen() error {
	fiberHandler := s.app.Handler()
	wsHandler := s.websocketHandler()

	s.fast = &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Path()) == "/ws" {
				wsHandler(ctx)
				return
			}
			fiberHandler(ctx)
		},
		Name: "gateway",
	}

	s.logger.Info().Str("addr", s.cfg.Server.Addr).Msg("gateway server listening")
	return s.fast.ListenAndServe(s.cfg.Server.Addr)
}

// Shutdown stops accepting new connections and drains in-flight requests.
func (s *Server) Shutdown() error {
	if s.fast == nil {
		return nil
	}
	return s.fast.Shutdown()
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.SendString("Gateway service is healthy and OK.")
}

func (s *Server) handleInfo(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"websocket": true,
		"endpoint":  "/ws",
		"clients":   s.hub.ClientCount(),
	})
}

func (s *Server) handleNotFound(c fiber.Ctx) error {
	s.logger.Error().Str("path", c.Path()).Msg("endpoint does not exist")
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": "The endpoint called does not exist.",
	})
}
