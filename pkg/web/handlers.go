package web

import (
	"encoding/binary"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-evergreen/pkg/formation"
	"github.com/teslashibe/go-evergreen/pkg/hub"
	"github.com/teslashibe/go-evergreen/pkg/protocol"
	"github.com/teslashibe/go-evergreen/pkg/session"
)

const source = "web"

// handleState returns the latest snapshot
func (s *Server) handleState(c *fiber.Ctx) error {
	snap := s.ctl.Snapshot()
	if snap == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "session not started"})
	}
	return c.JSON(stateData(snap))
}

// PositionsResponse is the JSON body of GET /api/positions/:population.
type PositionsResponse struct {
	Population string    `json:"population"`
	Seq        uint64    `json:"seq"`
	Mode       string    `json:"mode"`
	Count      int       `json:"count"`
	Positions  []float32 `json:"positions"`
}

// handlePositions returns one population as flat xyz triples. With
// ?format=binary the body is little-endian float32 instead of JSON.
func (s *Server) handlePositions(c *fiber.Ctx) error {
	snap := s.ctl.Snapshot()
	if snap == nil || snap.Positions == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "positions not available"})
	}

	name := c.Params("population")
	flat, ok := snap.Positions.Population(name)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown population: " + name})
	}

	if c.Query("format") == "binary" {
		buf := make([]byte, 4*len(flat))
		for i, v := range flat {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		c.Set("X-Seq", strconv.FormatUint(snap.Positions.Seq, 10))
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
		return c.Send(buf)
	}

	return c.JSON(PositionsResponse{
		Population: name,
		Seq:        snap.Positions.Seq,
		Mode:       snap.Positions.Mode.String(),
		Count:      len(flat) / 3,
		Positions:  flat,
	})
}

// handleSettle reports how far each population is from its endpoints
func (s *Server) handleSettle(c *fiber.Ctx) error {
	snap := s.ctl.Snapshot()
	if snap == nil || snap.Positions == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "positions not available"})
	}
	return c.JSON(fiber.Map{
		"seq":    snap.Positions.Seq,
		"mode":   snap.Positions.Mode,
		"settle": snap.Positions.Settle,
		"max":    snap.Positions.Settle.Max(),
	})
}

// handleToggle queues a formation toggle
func (s *Server) handleToggle(c *fiber.Ctx) error {
	return s.submit(c, session.Toggle(source))
}

// handleMode queues an explicit formation mode
func (s *Server) handleMode(c *fiber.Ctx) error {
	mode, err := formation.ParseMode(c.Params("mode"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return s.submit(c, session.SetMode(mode, source))
}

// handleGetTuning returns the tuning in effect
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	snap := s.ctl.Snapshot()
	if snap == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "session not started"})
	}
	return c.JSON(snap.Tuning)
}

// handleSetTuning queues a tuning update
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var req protocol.TuningData
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	t, err := tuningFrom(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return s.submit(c, session.Tune(t, source))
}

// handleStats returns runner, viewer and registered stats
func (s *Server) handleStats(c *fiber.Ctx) error {
	out := fiber.Map{
		"runner":  s.ctl.Stats(),
		"viewers": s.stateHub.ClientCount(),
		"dropped": s.stateHub.Dropped(),
	}

	s.statsMu.RLock()
	for name, fn := range s.stats {
		out[name] = fn()
	}
	s.statsMu.RUnlock()

	return c.JSON(out)
}

func (s *Server) submit(c *fiber.Ctx, cmd session.Command) error {
	if !s.ctl.Submit(cmd) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": ErrQueueFull.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}

// handleStateWS streams state to a viewer and accepts its commands
func (s *Server) handleStateWS(c *websocket.Conn) {
	client := hub.NewClient(s.stateHub, c)

	if snap := s.ctl.Snapshot(); snap != nil {
		if msg, err := stateMessage(snap); err == nil {
			if data, err := msg.Bytes(); err == nil {
				s.stateHub.SendTo(client, hub.Text(data))
			}
		}
	}

	client.Run()
}

// handleViewerMessage applies a command or tuning message from a viewer
func (s *Server) handleViewerMessage(c *hub.Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.replyError(c, "", err)
		return
	}

	switch msg.Type {
	case protocol.TypeCommand:
		cmd, err := msg.GetCommandData()
		if err != nil {
			s.replyError(c, msg.Type, err)
			return
		}
		next := session.Toggle(source)
		if cmd.Action == protocol.ActionSet {
			mode, err := formation.ParseMode(cmd.Mode)
			if err != nil {
				s.replyError(c, msg.Type, err)
				return
			}
			next = session.SetMode(mode, source)
		}
		if !s.ctl.Submit(next) {
			s.replyError(c, msg.Type, ErrQueueFull)
		}

	case protocol.TypeTuning:
		req, err := msg.GetTuningData()
		if err != nil {
			s.replyError(c, msg.Type, err)
			return
		}
		t, err := tuningFrom(*req)
		if err != nil {
			s.replyError(c, msg.Type, err)
			return
		}
		if !s.ctl.Submit(session.Tune(t, source)) {
			s.replyError(c, msg.Type, ErrQueueFull)
		}

	case protocol.TypePing:
		id := ""
		if p, err := msg.GetPingData(); err == nil {
			id = p.ID
		}
		if pong, err := protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli()); err == nil {
			s.send(c, pong)
		}

	default:
		s.replyError(c, msg.Type, ErrUnsupportedMessage)
	}
}

func (s *Server) replyError(c *hub.Client, t protocol.MessageType, err error) {
	s.log.Debug("rejected viewer message", "client", c.ID, "type", t, "error", err)
	if msg, mErr := protocol.NewErrorMessage(t, err); mErr == nil {
		s.send(c, msg)
	}
}

func (s *Server) send(c *hub.Client, msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	s.stateHub.SendTo(c, hub.Text(data))
}

// ErrUnsupportedMessage is returned to viewers that send a message type
// the state feed does not accept.
var ErrUnsupportedMessage = errors.New("web: unsupported message type")

// ErrQueueFull is returned when the session cannot accept another command
// before its next tick.
var ErrQueueFull = errors.New("web: command queue full")

// ErrInvalidTuning is returned for tuning values that cannot apply.
var ErrInvalidTuning = errors.New("web: invalid tuning")
