package formation

// Machine is the two-state formation switch. It has no timing of its own:
// changing the mode only changes which endpoint the morph engine selects
// on its next step.
//
// A Machine is owned by a single tick loop and is not safe for concurrent
// use.
type Machine struct {
	mode  Mode
	flips uint64
}

// New returns a machine in the Formed mode.
func New() *Machine {
	return &Machine{mode: Formed}
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode {
	return m.mode
}

// Toggle flips the mode and returns the new one.
func (m *Machine) Toggle() Mode {
	m.mode = m.mode.Opposite()
	m.flips++
	return m.mode
}

// Set moves to mode unconditionally. It reports whether the mode changed.
func (m *Machine) Set(mode Mode) bool {
	if mode != Formed && mode != Chaos {
		return false
	}
	if m.mode == mode {
		return false
	}
	m.mode = mode
	m.flips++
	return true
}

// Flips returns how many times the mode has changed.
func (m *Machine) Flips() uint64 {
	return m.flips
}
