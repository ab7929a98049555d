// Package protocol defines the WebSocket message types exchanged between
// hand trackers, the evergreen server and its viewers.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Tracker → server
	TypeHand MessageType = "hand" // One tracking-frame observation

	// Server → viewer
	TypeState MessageType = "state" // Published session snapshot

	// Viewer → server
	TypeCommand MessageType = "command" // Formation toggle or set
	TypeTuning  MessageType = "tuning"  // Runtime tuning update

	// Bidirectional
	TypePing  MessageType = "ping"  // Health check
	TypePong  MessageType = "pong"  // Health check response
	TypeError MessageType = "error" // Rejected message
)

// Command actions.
const (
	ActionToggle = "toggle"
	ActionSet    = "set"
)

// ErrUnknownAction is returned for command messages with an unrecognised action.
var ErrUnknownAction = errors.New("protocol: unknown command action")

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// Time returns the message timestamp, or the zero time if unset.
func (m *Message) Time() time.Time {
	if m.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.Timestamp)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Tracker → Server Message Types
// =============================================================================

// HandData is one tracking-frame observation. X and Y are normalized to
// [0,1] image coordinates and only meaningful when Active is set.
type HandData struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Active bool    `json:"active"`
	Pose   string  `json:"pose,omitempty"`  // "Open_Palm", "Closed_Fist", "None"
	Score  float64 `json:"score,omitempty"` // Pose confidence, 0.0 to 1.0

	// Pinch is the normalized thumb-index distance, when the tracker
	// reports one.
	Pinch   *float64 `json:"pinch,omitempty"`
	FrameID uint64   `json:"frame_id,omitempty"`
}

// =============================================================================
// Server → Viewer Message Types
// =============================================================================

// StateData is a published session snapshot.
type StateData struct {
	SessionID string      `json:"session_id"`
	Seq       uint64      `json:"seq"`
	Mode      string      `json:"mode"` // "FORMED" or "CHAOS"
	Flips     uint64      `json:"flips"`
	Control   ControlData `json:"control"`
	Hand      HandState   `json:"hand"`
	Events    []string    `json:"events,omitempty"`
	Tuning    TuningData  `json:"tuning"`
}

// ControlData is the spin and zoom state.
type ControlData struct {
	SpinVelocity float64 `json:"spin_velocity"`
	Rotation     float64 `json:"rotation"`
	Zoom         float64 `json:"zoom"`
}

// HandState is what the server last knew about the hand.
type HandState struct {
	Active bool    `json:"active"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pose   string  `json:"pose"`
}

// =============================================================================
// Viewer → Server Message Types
// =============================================================================

// CommandData asks the server to change formation.
type CommandData struct {
	Action string `json:"action"`         // "toggle" or "set"
	Mode   string `json:"mode,omitempty"` // for "set"
}

// TuningData carries runtime tuning. Zero fields are left unchanged.
type TuningData struct {
	LerpSpeed       float64 `json:"lerp_speed,omitempty"`
	SpinFriction    float64 `json:"spin_friction,omitempty"`
	SpinSensitivity float64 `json:"spin_sensitivity,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}

// ErrorData explains why a message was rejected.
type ErrorData struct {
	Message string      `json:"message"`
	Type    MessageType `json:"type,omitempty"` // Type of the rejected message
}
