package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/naveye-assist/internal/log"
	"github.com/teslashibe/naveye-assist/pkg/announce"
	"github.com/teslashibe/naveye-assist/pkg/camera"
	"github.com/teslashibe/naveye-assist/pkg/capture"
	"github.com/teslashibe/naveye-assist/pkg/contact"
	"github.com/teslashibe/naveye-assist/pkg/orientation"
	"github.com/teslashibe/naveye-assist/pkg/position"
	"github.com/teslashibe/naveye-assist/pkg/speech"
	"github.com/teslashibe/naveye-assist/pkg/vision"
)

// idleTicker never fires, so only explicit requests run cycles.
func idleTicker(time.Duration) (<-chan time.Time, func()) {
	return make(chan time.Time), func() {}
}

type fixture struct {
	srv     *Server
	loop    *capture.Loop
	sensor  *orientation.Broadcaster
	tracker *orientation.Tracker
	store   *contact.JSONStore
	ann     *announce.Announcer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := log.Discard()

	f := &fixture{}
	f.srv = NewServer(Config{Port: "0", Logger: logger})

	cam := camera.NewManager(camera.DefaultConfig(), camera.MockOpener(camera.NewMock()), logger)
	f.ann = announce.New(speech.NewRecorder(), f.srv, logger)
	det := vision.Returning(&vision.Detection{
		Name: "Chair",
		Box:  position.Polygon{{X: 0.8}, {X: 0.9}, {X: 0.9}, {X: 0.8}},
	}, nil)

	cfg := capture.DefaultConfig()
	cfg.NewTicker = idleTicker
	cfg.Logger = logger
	cfg.OnState = func(capture.State) { f.srv.Publish() }

	loop, err := capture.New(cfg, capture.Deps{Camera: cam, Detector: det, Announcer: f.ann})
	require.NoError(t, err)
	require.NoError(t, loop.Start(context.Background()))
	f.loop = loop

	f.sensor = orientation.NewBroadcaster(orientation.RawPortraitUp)
	f.tracker = orientation.NewTracker(f.sensor, logger)
	require.NoError(t, f.tracker.Start(context.Background()))

	f.store, err = contact.NewJSONStore(t.TempDir() + "/inquiries.json")
	require.NoError(t, err)

	f.srv.Bind(Bindings{
		Loop:        loop,
		Orientation: f.sensor,
		Tracker:     f.tracker,
		Form:        contact.NewForm(f.store),
		Mounted:     cam.Mounted,
	})

	t.Cleanup(func() {
		loop.Stop()
		f.tracker.Stop()
		f.ann.Close()
		f.srv.Shutdown()
	})
	return f
}

func do(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	s := NewServer(Config{Logger: log.Discard()})
	code, body := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "ok", body["status"])
}

func TestUnboundServer(t *testing.T) {
	s := NewServer(Config{Logger: log.Discard()})

	code, body := do(t, s, http.MethodGet, "/api/status", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "idle", body["state"])

	code, body = do(t, s, http.MethodPost, "/api/capture", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "capture loop not running", body["error"])

	code, _ = do(t, s, http.MethodPost, "/api/contact", `{}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCaptureButton(t *testing.T) {
	f := newFixture(t)

	code, body := do(t, f.srv, http.MethodPost, "/api/capture", "")
	require.Equal(t, 200, code)
	assert.Equal(t, "button", body["trigger"])
	assert.Equal(t, "on the right", body["label"])

	event := body["event"].(map[string]any)
	assert.Equal(t, "Detected a Chair on the right", event["utterance"])

	code, body = do(t, f.srv, http.MethodGet, "/api/status", "")
	require.Equal(t, 200, code)
	assert.Equal(t, "Chair on the right", body["caption"])
	assert.Equal(t, true, body["camera_mounted"])
	assert.Equal(t, true, body["started"])
}

func TestPauseResumeToggle(t *testing.T) {
	f := newFixture(t)

	code, body := do(t, f.srv, http.MethodPost, "/api/pause", "")
	require.Equal(t, 200, code)
	assert.Equal(t, "paused", body["state"])

	code, body = do(t, f.srv, http.MethodPost, "/api/capture", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, true, body["dropped"])

	_, body = do(t, f.srv, http.MethodGet, "/api/status", "")
	assert.Equal(t, false, body["camera_mounted"])

	code, body = do(t, f.srv, http.MethodPost, "/api/resume", "")
	require.Equal(t, 200, code)
	assert.Equal(t, "idle", body["state"])

	_, body = do(t, f.srv, http.MethodPost, "/api/toggle", "")
	assert.Equal(t, "paused", body["state"])
	_, body = do(t, f.srv, http.MethodPost, "/api/toggle", "")
	assert.Equal(t, "idle", body["state"])
}

func TestOrientation(t *testing.T) {
	f := newFixture(t)

	code, body := do(t, f.srv, http.MethodPost, "/api/orientation", `{"orientation":"landscape-secondary"}`)
	require.Equal(t, 200, code)
	assert.Equal(t, "landscape", body["orientation"])
	assert.Equal(t, orientation.Landscape, f.tracker.Current())

	code, _ = do(t, f.srv, http.MethodPost, "/api/orientation", `{"orientation":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	_, body = do(t, f.srv, http.MethodGet, "/api/status", "")
	assert.Equal(t, "landscape", body["orientation"])
}

func TestAbout(t *testing.T) {
	s := NewServer(Config{Logger: log.Discard()})
	code, body := do(t, s, http.MethodGet, "/api/about", "")
	require.Equal(t, 200, code)
	assert.Equal(t, "NavEye Assist", body["title"])
	assert.Equal(t, "1.0.0", body["version"])
}

func TestContact(t *testing.T) {
	f := newFixture(t)

	code, body := do(t, f.srv, http.MethodPost, "/api/contact", `{"name":"Ada","email":"","subject":"Hi","message":"Hello"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "Please fill out all fields.", body["error"])
	assert.Equal(t, 0, f.store.Count())

	code, body = do(t, f.srv, http.MethodPost, "/api/contact",
		`{"name":"Ada","email":"ada@example.com","subject":"Hi","message":"Hello"}`)
	require.Equal(t, 200, code)
	assert.Equal(t, "Your inquiry has been submitted!", body["message"])
	assert.NotEmpty(t, body["id"])
	fields := body["fields"].(map[string]any)
	for _, k := range []string{"name", "email", "subject", "message"} {
		assert.Equal(t, "", fields[k], k)
	}
	assert.Equal(t, 1, f.store.Count())
}

func TestIndexPage(t *testing.T) {
	s := NewServer(Config{Logger: log.Discard()})

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	data, _ := io.ReadAll(resp.Body)
	page := string(data)
	assert.Contains(t, page, `data-screen="home">NavEye Assist</a>`)
	assert.Contains(t, page, `data-screen="about">About</a>`)
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := NewServer(Config{Logger: log.Discard()})
	code, _ := do(t, s, http.MethodGet, "/ws/status", "")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}

func TestStatusWebSocket(t *testing.T) {
	f := newFixture(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go f.srv.Serve(ln)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/status", nil)
	require.NoError(t, err)
	defer conn.Close()

	var initial map[string]any
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, "idle", initial["state"])

	// Wait for the hub to register the client before publishing.
	require.Eventually(t, func() bool { return f.srv.statusHub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	f.srv.SetCaption("Door straight ahead")

	for {
		var raw map[string]any
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		require.NoError(t, conn.ReadJSON(&raw))
		if raw["caption"] == "Door straight ahead" {
			break
		}
	}
}

func TestStatusWebSocketOrientation(t *testing.T) {
	f := newFixture(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go f.srv.Serve(ln)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/status", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(OrientationRequest{Orientation: "landscape-primary"}))

	require.Eventually(t, func() bool {
		return f.tracker.Current() == orientation.Landscape
	}, 2*time.Second, 5*time.Millisecond)
}
