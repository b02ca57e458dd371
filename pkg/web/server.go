// Package web serves the operational surface: health and status
// endpoints, Prometheus metrics and a websocket event stream.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"courier/pkg/convlog"
	"courier/pkg/hub"
)

// Status is the assistant state reported by /api/status. The caller
// supplies a StatusFunc that assembles it per request.
type Status struct {
	Mode              string `json:"mode"`
	LastRecipient     string `json:"last_recipient,omitempty"`
	LastReceivedFrom  string `json:"last_received_from,omitempty"`
	ReplyArmed        bool   `json:"reply_armed"`
	MessagesSent      int    `json:"messages_sent"`
	ListenerConnected bool   `json:"listener_connected"`
}

// StatusFunc produces the current status snapshot.
type StatusFunc func() Status

// Server is the ops HTTP server.
type Server struct {
	app    *fiber.App
	addr   string
	events *hub.Hub
	logger *slog.Logger
}

// NewServer builds the ops server. journal may be nil to disable the
// conversation endpoint's content.
func NewServer(addr string, status StatusFunc, events *hub.Hub, journal *convlog.Log, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:   addr,
		events: events,
		logger: logger,
	}

	app := fiber.New(fiber.Config{
		AppName:               "courier",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(status())
	})
	api.Get("/conversation", func(c *fiber.Ctx) error {
		if journal == nil {
			return c.JSON([]convlog.Entry{})
		}
		return c.JSON(journal.Recent(50))
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEvents))

	s.app = app
	return s
}

// handleEvents attaches a websocket subscriber to the event hub.
func (s *Server) handleEvents(conn *websocket.Conn) {
	client := hub.NewClient(s.events, conn)
	client.Run()
}

// Start runs the event hub and serves HTTP. It blocks.
func (s *Server) Start() error {
	go s.events.Run()
	s.logger.Info("ops server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync serves in the background.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("ops server failed", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
