// Package web serves the browser surface: the capture screen, the about
// screen with its contact form, a JSON API and live websockets.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/naveye-assist/pkg/capture"
	"github.com/teslashibe/naveye-assist/pkg/contact"
	"github.com/teslashibe/naveye-assist/pkg/hub"
	"github.com/teslashibe/naveye-assist/pkg/orientation"
)

//go:embed static
var staticFiles embed.FS

// Loop is the part of the capture loop the surface drives.
// *capture.Loop implements it.
type Loop interface {
	State() capture.State
	Started() bool
	CaptureNow(ctx context.Context) (capture.Cycle, bool)
	Pause() error
	Resume() error
	Toggle() (capture.State, error)
	Last() *capture.Cycle
	Stats() capture.Stats
}

// Bindings connects the server to the running app. Any field may be nil.
type Bindings struct {
	Loop        Loop
	Orientation *orientation.Broadcaster
	Tracker     *orientation.Tracker
	Form        *contact.Form
	Mounted     func() bool
}

// Config holds server configuration.
type Config struct {
	Port      string
	AccessLog bool
	About     About
	Logger    *slog.Logger
}

// Status is the capture screen's state.
type Status struct {
	State         capture.State           `json:"state"`
	Started       bool                    `json:"started"`
	Caption       string                  `json:"caption"`
	Orientation   orientation.Orientation `json:"orientation"`
	CameraMounted bool                    `json:"camera_mounted"`
	Last          *capture.Cycle          `json:"last,omitempty"`
	Stats         capture.Stats           `json:"stats"`
}

// Server is the web surface server
type Server struct {
	app    *fiber.App
	config Config
	logger *slog.Logger

	mu       sync.RWMutex
	bindings Bindings
	caption  string

	statusHub *hub.Hub
	cameraHub *hub.Hub
	hubsOnce  sync.Once
}

// NewServer creates the server. Call Bind before serving requests that
// touch the capture loop.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.About.Title == "" {
		cfg.About = DefaultAbout()
	}

	s := &Server{
		config:    cfg,
		logger:    cfg.Logger.With("component", "web"),
		statusHub: hub.New("status", cfg.Logger),
		cameraHub: hub.New("camera", cfg.Logger),
	}

	s.statusHub.Handle(s.handleStatusMessage)

	app := fiber.New(fiber.Config{
		AppName:               "NavEye Assist",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New())

	app.Get("/health", s.handleHealth)

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/capture", s.handleCapture)
	api.Post("/pause", s.handlePause)
	api.Post("/resume", s.handleResume)
	api.Post("/toggle", s.handleToggle)
	api.Post("/orientation", s.handleOrientation)
	api.Get("/about", s.handleAbout)
	api.Post("/contact", s.handleContact)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	root, _ := fs.Sub(staticFiles, "static")
	app.Use("/", filesystem.New(filesystem.Config{
		Root:  http.FS(root),
		Index: "index.html",
	}))

	s.app = app
	return s
}

// Bind attaches the running app's components.
func (s *Server) Bind(b Bindings) {
	s.mu.Lock()
	s.bindings = b
	s.mu.Unlock()
	s.Publish()
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on the configured port. It blocks until Shutdown.
func (s *Server) Start() error {
	s.startHubs()
	s.logger.Info("web surface listening", "url", "http://localhost:"+s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Serve serves on an existing listener. It blocks until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.startHubs()
	return s.app.Listener(ln)
}

func (s *Server) startHubs() {
	s.hubsOnce.Do(func() {
		go s.statusHub.Run()
		go s.cameraHub.Run()
	})
}

// Shutdown stops the hubs and the HTTP server.
func (s *Server) Shutdown() error {
	s.statusHub.Stop()
	s.cameraHub.Stop()
	return s.app.Shutdown()
}

// SetCaption stores the caption and pushes a status update. It makes the
// server an announce.CaptionSink.
func (s *Server) SetCaption(caption string) {
	s.mu.Lock()
	s.caption = caption
	s.mu.Unlock()
	s.Publish()
}

// Publish broadcasts the current status to status sockets.
func (s *Server) Publish() {
	if err := s.statusHub.BroadcastJSON(s.Status()); err != nil {
		s.logger.Warn("encode status", "error", err)
	}
}

// SendCameraFrame sends a preview JPEG to camera sockets.
func (s *Server) SendCameraFrame(jpeg []byte) {
	if s.cameraHub.ClientCount() == 0 {
		return
	}
	s.cameraHub.BroadcastBinary(jpeg)
}

// Status snapshots the capture screen state.
func (s *Server) Status() Status {
	s.mu.RLock()
	b := s.bindings
	st := Status{Caption: s.caption, State: capture.StateIdle}
	s.mu.RUnlock()

	if b.Loop != nil {
		st.State = b.Loop.State()
		st.Started = b.Loop.Started()
		st.Last = b.Loop.Last()
		st.Stats = b.Loop.Stats()
	}
	if b.Tracker != nil {
		st.Orientation = b.Tracker.Current()
	}
	if b.Mounted != nil {
		st.CameraMounted = b.Mounted()
	}
	return st
}

// errorHandler answers with {"error": message} and the error's status.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) bound() Bindings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindings
}
