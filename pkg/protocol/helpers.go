package protocol

import (
	"fmt"
	"math"
	"time"

	"github.com/teslashibe/go-evergreen/pkg/gesture"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewHandMessage creates a hand message from a sample
func NewHandMessage(s gesture.Sample) (*Message, error) {
	return NewMessage(TypeHand, HandFromSample(s))
}

// NewStateMessage creates a state message
func NewStateMessage(state StateData) (*Message, error) {
	return NewMessage(TypeState, state)
}

// NewCommandMessage creates a command message
func NewCommandMessage(action, mode string) (*Message, error) {
	return NewMessage(TypeCommand, CommandData{Action: action, Mode: mode})
}

// NewTuningMessage creates a tuning message
func NewTuningMessage(t TuningData) (*Message, error) {
	return NewMessage(TypeTuning, t)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// NewErrorMessage creates an error message for a rejected message type
func NewErrorMessage(rejected MessageType, err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: err.Error(), Type: rejected})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetHandData extracts hand data from a message
func (m *Message) GetHandData() (*HandData, error) {
	var data HandData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStateData extracts state data from a message
func (m *Message) GetStateData() (*StateData, error) {
	var data StateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCommandData extracts a command from a message
func (m *Message) GetCommandData() (*CommandData, error) {
	var data CommandData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	if data.Action != ActionToggle && data.Action != ActionSet {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, data.Action)
	}
	return &data, nil
}

// GetTuningData extracts tuning from a message
func (m *Message) GetTuningData() (*TuningData, error) {
	var data TuningData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// =============================================================================
// Conversions
// =============================================================================

// Sample converts wire data into a classifier sample stamped with at.
// Coordinates are clamped to [0,1]; a non-finite coordinate marks the
// sample inactive.
func (h *HandData) Sample(at time.Time) gesture.Sample {
	s := gesture.Sample{
		X:         unit(h.X),
		Y:         unit(h.Y),
		Active:    h.Active && finite(h.X) && finite(h.Y),
		Pose:      gesture.ParsePose(h.Pose),
		PoseScore: h.Score,
		At:        at,
	}
	if h.Pinch != nil && finite(*h.Pinch) {
		s.Pinch, s.HasPinch = *h.Pinch, true
	}
	return s
}

// HandFromSample converts a classifier sample into wire data.
func HandFromSample(s gesture.Sample) HandData {
	h := HandData{
		X:      s.X,
		Y:      s.Y,
		Active: s.Active,
		Pose:   s.Pose.Label(),
		Score:  s.PoseScore,
	}
	if s.HasPinch {
		p := s.Pinch
		h.Pinch = &p
	}
	return h
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func unit(v float64) float64 {
	if !finite(v) {
		return 0.5
	}
	return math.Max(0, math.Min(1, v))
}
