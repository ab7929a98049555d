// Package gesture turns a stream of hand-tracking samples into debounced
// discrete gestures and continuous pointer and pinch signals.
package gesture

import (
	"strings"
	"time"

	"github.com/teslashibe/go-evergreen/pkg/formation"
)

// Upstream pose labels emitted by the hand-tracking model.
const (
	LabelOpenPalm   = "Open_Palm"
	LabelClosedFist = "Closed_Fist"
	LabelNone       = "None"
)

// Pose is the discrete hand pose carried alongside a sample.
type Pose int

const (
	PoseNone Pose = iota
	PoseOpenPalm
	PoseClosedFist
)

// ParsePose maps an upstream label to a Pose. Empty, "None" and labels
// this engine does not act on all map to PoseNone.
func ParsePose(label string) Pose {
	switch strings.TrimSpace(label) {
	case LabelOpenPalm:
		return PoseOpenPalm
	case LabelClosedFist:
		return PoseClosedFist
	default:
		return PoseNone
	}
}

// Label returns the upstream label for p.
func (p Pose) Label() string {
	switch p {
	case PoseOpenPalm:
		return LabelOpenPalm
	case PoseClosedFist:
		return LabelClosedFist
	default:
		return LabelNone
	}
}

// String implements fmt.Stringer.
func (p Pose) String() string { return p.Label() }

// Event is a discrete gesture, emitted once per pose change.
type Event int

const (
	OpenPalm Event = iota + 1
	ClosedFist
)

// String implements fmt.Stringer.
func (e Event) String() string {
	switch e {
	case OpenPalm:
		return "OpenPalm"
	case ClosedFist:
		return "ClosedFist"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Event) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Mode returns the formation mode an event requests: an open palm
// scatters the tree, a closed fist gathers it.
func (e Event) Mode() formation.Mode {
	if e == OpenPalm {
		return formation.Chaos
	}
	return formation.Formed
}

func eventFor(p Pose) Event {
	if p == PoseOpenPalm {
		return OpenPalm
	}
	return ClosedFist
}

// Sample is one tracking-frame observation. X and Y are normalized to
// [0,1] and are meaningful only when Active is true.
type Sample struct {
	X      float64
	Y      float64
	Active bool
	Pose   Pose
	At     time.Time

	// PoseScore is the upstream confidence for Pose, if provided.
	PoseScore float64

	// Pinch is the normalized thumb-index distance; valid when HasPinch.
	Pinch    float64
	HasPinch bool
}

// Idle is the sample a session starts from: centred, no hand.
func Idle() Sample {
	return Sample{X: 0.5, Y: 0.5}
}
