package ingest

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-evergreen/pkg/gesture"
	"github.com/teslashibe/go-evergreen/pkg/protocol"
)

func setupTestServer(t *testing.T, hub *Hub) string {
	t.Helper()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	hub.RegisterRoutes(app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })

	return "ws://" + ln.Addr().String()
}

func dialTracker(t *testing.T, base, path string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(base+path, nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) *protocol.Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage error: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.TrackerCount() != 0 {
		t.Error("TrackerCount should be 0 initially")
	}
	if len(hub.GetTrackerInfos()) != 0 {
		t.Error("GetTrackerInfos should return empty slice initially")
	}
	if hub.GetTracker("nonexistent") != nil {
		t.Error("GetTracker should return nil for nonexistent tracker")
	}
}

func TestTrackerConnection(t *testing.T) {
	hub := NewHub()
	base := setupTestServer(t, hub)

	ws := dialTracker(t, base, "/ws/tracker/cam-1")
	waitFor(t, func() bool { return hub.TrackerCount() == 1 })

	if hub.GetTracker("cam-1") == nil {
		t.Error("GetTracker should return the connected tracker")
	}

	ws.Close()
	waitFor(t, func() bool { return hub.TrackerCount() == 0 })
}

func TestAnonymousTrackerGetsID(t *testing.T) {
	hub := NewHub()
	base := setupTestServer(t, hub)

	dialTracker(t, base, "/ws/tracker")
	waitFor(t, func() bool { return hub.TrackerCount() == 1 })

	infos := hub.GetTrackerInfos()
	if len(infos[0].ID) != 36 {
		t.Errorf("tracker ID = %q, want a UUID", infos[0].ID)
	}
}

func TestHandCallback(t *testing.T) {
	hub := NewHub()
	base := setupTestServer(t, hub)

	var mu sync.Mutex
	var gotID string
	var got []gesture.Sample
	hub.OnHand(func(trackerID string, s gesture.Sample) {
		mu.Lock()
		gotID = trackerID
		got = append(got, s)
		mu.Unlock()
	})

	ws := dialTracker(t, base, "/ws/tracker/hand-test")

	sample := gesture.Sample{X: 0.3, Y: 0.6, Active: true, Pose: gesture.PoseOpenPalm, Pinch: 0.2, HasPinch: true}
	msg, _ := protocol.NewHandMessage(sample)
	data, _ := msg.Bytes()
	ws.WriteMessage(websocket.TextMessage, data)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if gotID != "hand-test" {
		t.Errorf("tracker ID = %s, want hand-test", gotID)
	}
	s := got[0]
	if s.X != 0.3 || !s.Active || s.Pose != gesture.PoseOpenPalm || !s.HasPinch {
		t.Errorf("sample = %+v", s)
	}
	if s.At.IsZero() {
		t.Error("sample should be timestamped")
	}

	stats := hub.GetStats()
	if stats.HandsReceived != 1 {
		t.Errorf("HandsReceived = %d, want 1", stats.HandsReceived)
	}
	if info := hub.GetTrackerInfos(); info[0].Samples != 1 {
		t.Errorf("Samples = %d, want 1", info[0].Samples)
	}
}

func TestRejectsUnsupportedAndInvalid(t *testing.T) {
	hub := NewHub()
	base := setupTestServer(t, hub)
	ws := dialTracker(t, base, "/ws/tracker/bad")

	tests := []struct {
		name     string
		payload  string
		wantType protocol.MessageType
	}{
		{"invalid json", "{nope", ""},
		{"state from tracker", `{"type":"state","data":{}}`, protocol.TypeState},
		{"bad hand data", `{"type":"hand","data":{"x":"left"}}`, protocol.TypeHand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws.WriteMessage(websocket.TextMessage, []byte(tt.payload))

			resp := readMessage(t, ws)
			if resp.Type != protocol.TypeError {
				t.Fatalf("Type = %s, want error", resp.Type)
			}
			data, err := resp.GetErrorData()
			if err != nil {
				t.Fatalf("GetErrorData error: %v", err)
			}
			if data.Type != tt.wantType {
				t.Errorf("rejected type = %q, want %q", data.Type, tt.wantType)
			}
		})
	}

	if got := hub.GetStats().Rejected; got != 3 {
		t.Errorf("Rejected = %d, want 3", got)
	}
}

func TestPingPong(t *testing.T) {
	hub := NewHub()
	base := setupTestServer(t, hub)
	ws := dialTracker(t, base, "/ws/tracker/ping-test")

	msg, _ := protocol.NewPingMessage("p1")
	data, _ := msg.Bytes()
	ws.WriteMessage(websocket.TextMessage, data)

	resp := readMessage(t, ws)
	if resp.Type != protocol.TypePong {
		t.Fatalf("Type = %s, want pong", resp.Type)
	}
	pong, err := resp.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData error: %v", err)
	}
	if pong.ID != "p1" {
		t.Errorf("ID = %s, want p1", pong.ID)
	}
}

func TestUpgradeRequired(t *testing.T) {
	hub := NewHub()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	hub.RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/tracker", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("Status = %d, want 426", resp.StatusCode)
	}
}

func TestAPIRoutes(t *testing.T) {
	hub := NewHub()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	hub.RegisterAPIRoutes(app.Group("/api"))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/trackers/", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || !strings.Contains(string(body), "trackers") {
		t.Errorf("GET /api/trackers/ = %d %s", resp.StatusCode, body)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/trackers/stats", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TrackerCount != 0 {
		t.Errorf("TrackerCount = %d, want 0", stats.TrackerCount)
	}
}

func TestErrUnsupported(t *testing.T) {
	if !errors.Is(errUnsupported(protocol.TypeState), ErrUnsupportedMessage) {
		t.Error("errUnsupported should wrap ErrUnsupportedMessage")
	}
}
