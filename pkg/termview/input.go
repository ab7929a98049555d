package termview

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/teslashibe/go-evergreen/pkg/gesture"
	"github.com/teslashibe/go-evergreen/pkg/session"
)

const pinchStep = 0.05

// Result is what one terminal event asks of the session.
type Result struct {
	Sample  *gesture.Sample
	Command *session.Command
	Quit    bool
}

// Input turns mouse and keys into hand samples: the mouse is the hand,
// o/f/n pick the pose, the wheel pinches and h drops tracking.
type Input struct {
	x, y   float64
	active bool
	pose   gesture.Pose
	pinch  float64
}

// NewInput starts centred with no hand and a half-open pinch.
func NewInput() *Input {
	idle := gesture.Idle()
	return &Input{x: idle.X, y: idle.Y, pinch: 0.5}
}

// Handle interprets one event for a w×h screen.
func (in *Input) Handle(ev tcell.Event, w, h int) Result {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return in.key(ev)

	case *tcell.EventMouse:
		mx, my := ev.Position()
		if w > 1 {
			in.x = clampUnit(float64(mx) / float64(w-1))
		}
		if h > 1 {
			in.y = clampUnit(float64(my) / float64(h-1))
		}
		in.active = true

		switch btn := ev.Buttons(); {
		case btn&tcell.WheelUp != 0:
			in.pinch = clampUnit(in.pinch + pinchStep)
		case btn&tcell.WheelDown != 0:
			in.pinch = clampUnit(in.pinch - pinchStep)
		}
		return in.result()
	}
	return Result{}
}

func (in *Input) key(ev *tcell.EventKey) Result {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Result{Quit: true}
	case tcell.KeyRune:
	default:
		return Result{}
	}

	switch ev.Rune() {
	case 'q':
		return Result{Quit: true}
	case ' ':
		cmd := session.Toggle("terminal")
		return Result{Command: &cmd}
	case 'o':
		in.pose = gesture.PoseOpenPalm
	case 'f':
		in.pose = gesture.PoseClosedFist
	case 'n':
		in.pose = gesture.PoseNone
	case 'h':
		in.active = !in.active
	case '+', '=':
		in.pinch = clampUnit(in.pinch + pinchStep)
	case '-':
		in.pinch = clampUnit(in.pinch - pinchStep)
	default:
		return Result{}
	}
	return in.result()
}

func (in *Input) result() Result {
	s := in.Sample()
	return Result{Sample: &s}
}

// Sample returns the current simulated hand.
func (in *Input) Sample() gesture.Sample {
	return gesture.Sample{
		X:        in.x,
		Y:        in.y,
		Active:   in.active,
		Pose:     in.pose,
		Pinch:    in.pinch,
		HasPinch: true,
		At:       time.Now(),
	}
}

func clampUnit(v float64) float64 {
	return max(0, min(1, v))
}
