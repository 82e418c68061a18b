package web

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/naveye-assist/pkg/contact"
	"github.com/teslashibe/naveye-assist/pkg/hub"
	"github.com/teslashibe/naveye-assist/pkg/orientation"
)

var errNotReady = fiber.NewError(fiber.StatusServiceUnavailable, "capture loop not running")

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleStatus returns the capture screen state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

// handleCapture runs one cycle now, as the capture button does
func (s *Server) handleCapture(c *fiber.Ctx) error {
	loop := s.bound().Loop
	if loop == nil {
		return errNotReady
	}

	cycle, ran := loop.CaptureNow(c.UserContext())
	if !ran {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"dropped": true,
			"state":   loop.State(),
		})
	}
	return c.JSON(cycle)
}

func (s *Server) handlePause(c *fiber.Ctx) error {
	loop := s.bound().Loop
	if loop == nil {
		return errNotReady
	}
	if err := loop.Pause(); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"state": loop.State()})
}

func (s *Server) handleResume(c *fiber.Ctx) error {
	loop := s.bound().Loop
	if loop == nil {
		return errNotReady
	}
	if err := loop.Resume(); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"state": loop.State()})
}

// handleToggle is the pause/resume button
func (s *Server) handleToggle(c *fiber.Ctx) error {
	loop := s.bound().Loop
	if loop == nil {
		return errNotReady
	}
	state, err := loop.Toggle()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"state": state})
}

// OrientationRequest reports the browser's screen orientation.
type OrientationRequest struct {
	Orientation string `json:"orientation"`
}

func (s *Server) handleOrientation(c *fiber.Ctx) error {
	var req OrientationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	o, err := s.setOrientation(req.Orientation)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"orientation": o})
}

// handleStatusMessage takes orientation reports sent over the status socket.
func (s *Server) handleStatusMessage(data []byte) {
	var req OrientationRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Orientation == "" {
		s.logger.Debug("ignoring status message", "bytes", len(data))
		return
	}
	if _, err := s.setOrientation(req.Orientation); err != nil {
		s.logger.Warn("bad orientation report", "error", err)
	}
}

func (s *Server) setOrientation(reading string) (orientation.Orientation, error) {
	sensor := s.bound().Orientation
	if sensor == nil {
		return orientation.Portrait, fiber.NewError(fiber.StatusNotFound, "orientation sensor not configured")
	}
	raw, err := orientation.ParseRaw(reading)
	if err != nil {
		return orientation.Portrait, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	sensor.Set(raw)
	return orientation.Collapse(raw), nil
}

func (s *Server) handleAbout(c *fiber.Ctx) error {
	return c.JSON(s.config.About)
}

// handleContact submits the about screen's form
func (s *Server) handleContact(c *fiber.Ctx) error {
	form := s.bound().Form
	if form == nil {
		return fiber.NewError(fiber.StatusNotFound, "contact form not configured")
	}

	var fields contact.Fields
	if err := c.BodyParser(&fields); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	form.Set(fields)
	inq, err := form.Submit()
	if errors.Is(err, contact.ErrIncomplete) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  contact.PromptIncomplete,
			"fields": form.Fields(),
		})
	}
	if err != nil {
		s.logger.Error("store inquiry", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not save inquiry")
	}

	s.logger.Info("inquiry received", "id", inq.ID)
	return c.JSON(fiber.Map{
		"message": contact.PromptSubmitted,
		"id":      inq.ID,
		"fields":  form.Fields(),
	})
}

// handleStatusWS sends the current status, then every update
func (s *Server) handleStatusWS(c *websocket.Conn) {
	data, err := json.Marshal(s.Status())
	if err != nil {
		return
	}
	if client := hub.NewClient(s.statusHub, c, hub.NewJSONMessage(data)); client != nil {
		client.Run()
	}
}

// handleCameraWS streams preview JPEG frames while the feed is mounted
func (s *Server) handleCameraWS(c *websocket.Conn) {
	if client := hub.NewClient(s.cameraHub, c); client != nil {
		client.Run()
	}
}
