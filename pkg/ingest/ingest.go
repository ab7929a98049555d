// Package ingest accepts hand-tracker WebSocket connections and forwards
// their samples to the session.
package ingest

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-evergreen/internal/log"
	"github.com/teslashibe/go-evergreen/pkg/gesture"
	"github.com/teslashibe/go-evergreen/pkg/protocol"
)

// TrackerConnection represents a connected tracker
type TrackerConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time
	Samples   uint64

	mu sync.Mutex
}

// Send sends a message to the tracker
func (t *TrackerConnection) Send(msg *protocol.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	return t.Conn.WriteMessage(websocket.TextMessage, data)
}

func (t *TrackerConnection) touch(sample bool) {
	t.mu.Lock()
	t.LastSeen = time.Now()
	if sample {
		t.Samples++
	}
	t.mu.Unlock()
}

// Hub manages WebSocket connections from trackers
type Hub struct {
	mu       sync.RWMutex
	trackers map[string]*TrackerConnection
	log      *slog.Logger

	onHand func(trackerID string, s gesture.Sample)

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	handsReceived    atomic.Uint64
	rejected         atomic.Uint64
}

// NewHub creates a new tracker hub
func NewHub() *Hub {
	return &Hub{
		trackers: make(map[string]*TrackerConnection),
		log:      log.Component("ingest"),
	}
}

// OnHand sets the callback for incoming hand samples. It runs on the
// connection's read goroutine and must not block.
func (h *Hub) OnHand(callback func(trackerID string, s gesture.Sample)) {
	h.mu.Lock()
	h.onHand = callback
	h.mu.Unlock()
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/tracker", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/tracker", websocket.New(h.handleTracker))
	app.Get("/ws/tracker/:id", websocket.New(h.handleTracker))
}

// handleTracker handles a tracker WebSocket connection
func (h *Hub) handleTracker(c *websocket.Conn) {
	trackerID := c.Params("id")
	if trackerID == "" {
		trackerID = uuid.NewString()
	}

	tracker := &TrackerConnection{
		ID:        trackerID,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	h.mu.Lock()
	h.trackers[trackerID] = tracker
	count := len(h.trackers)
	h.mu.Unlock()

	logger := h.log.With("tracker", trackerID)
	logger.Info("tracker connected", "trackers", count)

	defer func() {
		h.mu.Lock()
		if h.trackers[trackerID] == tracker {
			delete(h.trackers, trackerID)
		}
		count := len(h.trackers)
		h.mu.Unlock()
		logger.Info("tracker disconnected", "trackers", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			logger.Debug("tracker read error", "error", err)
			return
		}

		h.messagesReceived.Add(1)
		h.handleMessage(tracker, data)
	}
}

// handleMessage processes an incoming message from a tracker
func (h *Hub) handleMessage(tracker *TrackerConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.reject(tracker, "", err)
		return
	}

	switch msg.Type {
	case protocol.TypeHand:
		hand, err := msg.GetHandData()
		if err != nil {
			h.reject(tracker, msg.Type, err)
			return
		}
		tracker.touch(true)
		h.handsReceived.Add(1)

		at := msg.Time()
		if at.IsZero() {
			at = time.Now()
		}

		h.mu.RLock()
		cb := h.onHand
		h.mu.RUnlock()
		if cb != nil {
			cb(tracker.ID, hand.Sample(at))
		}

	case protocol.TypePing:
		tracker.touch(false)
		h.sendPong(tracker, msg)

	default:
		h.reject(tracker, msg.Type, errUnsupported(msg.Type))
	}
}

func (h *Hub) reject(tracker *TrackerConnection, t protocol.MessageType, err error) {
	h.rejected.Add(1)
	h.log.Debug("rejected tracker message", "tracker", tracker.ID, "type", t, "error", err)

	msg, mErr := protocol.NewErrorMessage(t, err)
	if mErr != nil {
		return
	}
	h.send(tracker, msg)
}

func (h *Hub) sendPong(tracker *TrackerConnection, ping *protocol.Message) {
	id := ""
	if data, err := ping.GetPingData(); err == nil {
		id = data.ID
	}
	msg, err := protocol.NewPongMessage(id, ping.Timestamp, time.Now().UnixMilli())
	if err != nil {
		return
	}
	h.send(tracker, msg)
}

func (h *Hub) send(tracker *TrackerConnection, msg *protocol.Message) {
	h.messagesSent.Add(1)
	if err := tracker.Send(msg); err != nil {
		h.log.Debug("send to tracker failed", "tracker", tracker.ID, "error", err)
	}
}

// GetTracker returns a tracker connection by ID
func (h *Hub) GetTracker(trackerID string) *TrackerConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.trackers[trackerID]
}

// TrackerCount returns the number of connected trackers
func (h *Hub) TrackerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.trackers)
}

// Stats contains hub statistics
type Stats struct {
	TrackerCount     int    `json:"tracker_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	HandsReceived    uint64 `json:"hands_received"`
	Rejected         uint64 `json:"rejected"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		TrackerCount:     h.TrackerCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		HandsReceived:    h.handsReceived.Load(),
		Rejected:         h.rejected.Load(),
	}
}

// TrackerInfo contains info about a connected tracker
type TrackerInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
	Samples   uint64    `json:"samples"`
}

// GetTrackerInfos returns info about all connected trackers
func (h *Hub) GetTrackerInfos() []TrackerInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]TrackerInfo, 0, len(h.trackers))
	for _, t := range h.trackers {
		t.mu.Lock()
		infos = append(infos, TrackerInfo{
			ID:        t.ID,
			Connected: t.Connected,
			LastSeen:  t.LastSeen,
			Samples:   t.Samples,
		})
		t.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers API routes for tracker inspection
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	trackers := api.Group("/trackers")

	trackers.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"trackers": h.GetTrackerInfos(),
			"count":    h.TrackerCount(),
		})
	})

	trackers.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
}
