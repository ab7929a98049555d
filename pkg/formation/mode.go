// Package formation holds the tree's discrete formation mode.
package formation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when parsing an unrecognized mode name.
var ErrUnknownMode = errors.New("formation: unknown mode")

// Mode selects which endpoint every element moves toward.
type Mode int

const (
	// Formed is the tree silhouette. It is the zero value and the
	// initial mode of every session.
	Formed Mode = iota
	// Chaos is the scattered cloud.
	Chaos
)

// String returns "FORMED" or "CHAOS".
func (m Mode) String() string {
	switch m {
	case Formed:
		return "FORMED"
	case Chaos:
		return "CHAOS"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Opposite returns the other mode.
func (m Mode) Opposite() Mode {
	if m == Chaos {
		return Formed
	}
	return Chaos
}

// ParseMode accepts "formed" or "chaos" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FORMED":
		return Formed, nil
	case "CHAOS":
		return Chaos, nil
	default:
		return Formed, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != Formed && m != Chaos {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
