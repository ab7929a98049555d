// Package web serves the session API and the live state feed.
package web

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-evergreen/internal/log"
	"github.com/teslashibe/go-evergreen/pkg/hub"
	"github.com/teslashibe/go-evergreen/pkg/session"
)

// Controller is the part of a session runner the server drives.
type Controller interface {
	Snapshot() *session.Snapshot
	Submit(cmd session.Command) bool
	Stats() session.RunnerStats
}

// StatsFunc reports extra stats under a name in GET /api/stats.
type StatsFunc func() any

// Config configures the server.
type Config struct {
	Port string

	// BroadcastEvery sends a state message every N ticks. Mode changes
	// and gesture events are always sent.
	BroadcastEvery int

	// StaticDir, if set, is served at "/".
	StaticDir string
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Port:           "8080",
		BroadcastEvery: 2,
	}
}

// Server is the HTTP and WebSocket front of a running session
type Server struct {
	app *fiber.App
	cfg Config
	log *slog.Logger

	ctl      Controller
	stateHub *hub.Hub

	statsMu sync.RWMutex
	stats   map[string]StatsFunc
}

// NewServer creates a server for ctl
func NewServer(ctl Controller, cfg Config) *Server {
	if cfg.BroadcastEvery < 1 {
		cfg.BroadcastEvery = 1
	}

	s := &Server{
		cfg:      cfg,
		log:      log.Component("web"),
		ctl:      ctl,
		stateHub: hub.New("state"),
		stats:    make(map[string]StatsFunc),
	}
	s.stateHub.OnMessage(s.handleViewerMessage)

	app := fiber.New(fiber.Config{
		AppName:               "Evergreen",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/positions/:population", s.handlePositions)
	api.Get("/settle", s.handleSettle)
	api.Post("/toggle", s.handleToggle)
	api.Post("/mode/:mode", s.handleMode)
	api.Get("/tuning", s.handleGetTuning)
	api.Post("/tuning", s.handleSetTuning)
	api.Get("/stats", s.handleStats)

	app.Use("/ws/state", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.handleStateWS))

	s.app = app
	return s
}

// App returns the underlying fiber app so other packages can mount routes.
func (s *Server) App() *fiber.App { return s.app }

// API returns the /api router.
func (s *Server) API() fiber.Router { return s.app.Group("/api") }

// StateHub returns the hub that fans state out to viewers.
func (s *Server) StateHub() *hub.Hub { return s.stateHub }

// AddStats registers an extra stats source.
func (s *Server) AddStats(name string, fn StatsFunc) {
	s.statsMu.Lock()
	s.stats[name] = fn
	s.statsMu.Unlock()
}

// Start listens on the configured port until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.cfg.Port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.stateHub.Run(ctx)
	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			s.log.Warn("shutdown failed", "error", err)
		}
	}()

	s.log.Info("web server listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// Publish broadcasts the current state to viewers. It is meant to run as
// a session tick hook.
func (s *Server) Publish(f session.Frame, _ *session.Session) {
	if f.Seq%uint64(s.cfg.BroadcastEvery) != 0 && !f.ModeChanged && len(f.Events) == 0 {
		return
	}
	if s.stateHub.ClientCount() == 0 {
		return
	}

	snap := s.ctl.Snapshot()
	if snap == nil {
		return
	}
	msg, err := stateMessage(snap)
	if err != nil {
		s.log.Warn("encode state failed", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		s.log.Warn("encode state failed", "error", err)
		return
	}
	s.stateHub.Broadcast(hub.Text(data))
}
