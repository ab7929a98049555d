package web

import (
	"fmt"

	"github.com/teslashibe/go-evergreen/pkg/protocol"
	"github.com/teslashibe/go-evergreen/pkg/session"
)

func stateData(snap *session.Snapshot) protocol.StateData {
	events := make([]string, 0, len(snap.Events))
	for _, e := range snap.Events {
		events = append(events, e.String())
	}

	return protocol.StateData{
		SessionID: snap.SessionID,
		Seq:       snap.Seq,
		Mode:      snap.Mode.String(),
		Flips:     snap.Flips,
		Control: protocol.ControlData{
			SpinVelocity: snap.Control.SpinVelocity,
			Rotation:     snap.Control.Rotation,
			Zoom:         snap.Control.Zoom,
		},
		Hand: protocol.HandState{
			Active: snap.Hand.Active,
			X:      snap.Hand.Pointer.X,
			Y:      snap.Hand.Pointer.Y,
			Pose:   snap.Hand.Pose,
		},
		Events: events,
		Tuning: protocol.TuningData{
			LerpSpeed:       snap.Tuning.LerpSpeed,
			SpinFriction:    snap.Tuning.SpinFriction,
			SpinSensitivity: snap.Tuning.SpinSensitivity,
		},
	}
}

func stateMessage(snap *session.Snapshot) (*protocol.Message, error) {
	return protocol.NewStateMessage(stateData(snap))
}

// tuningFrom validates wire tuning. Zero fields mean "unchanged"; present
// fields must be usable as-is.
func tuningFrom(t protocol.TuningData) (session.Tuning, error) {
	switch {
	case t.LerpSpeed < 0:
		return session.Tuning{}, fmt.Errorf("%w: lerp_speed must be > 0", ErrInvalidTuning)
	case t.SpinFriction < 0 || t.SpinFriction >= 1:
		return session.Tuning{}, fmt.Errorf("%w: spin_friction must be in (0,1)", ErrInvalidTuning)
	case t.SpinSensitivity < 0:
		return session.Tuning{}, fmt.Errorf("%w: spin_sensitivity must be > 0", ErrInvalidTuning)
	case t == (protocol.TuningData{}):
		return session.Tuning{}, fmt.Errorf("%w: no fields set", ErrInvalidTuning)
	}
	return session.Tuning{
		LerpSpeed:       t.LerpSpeed,
		SpinFriction:    t.SpinFriction,
		SpinSensitivity: t.SpinSensitivity,
	}, nil
}
