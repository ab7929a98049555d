package session

import "github.com/teslashibe/go-evergreen/pkg/formation"

// CommandKind identifies a UI command.
type CommandKind int

const (
	// CommandToggle flips the formation mode.
	CommandToggle CommandKind = iota
	// CommandSet sets the formation mode.
	CommandSet
	// CommandTune applies runtime tuning.
	CommandTune
)

// Command is one request from a UI collaborator, applied at the start of
// the next tick.
type Command struct {
	Kind   CommandKind
	Mode   formation.Mode
	Tuning Tuning
	Source string // for logs: "web", "terminal", "config"
}

// Toggle returns a toggle command.
func Toggle(source string) Command {
	return Command{Kind: CommandToggle, Source: source}
}

// SetMode returns a command that sets mode.
func SetMode(mode formation.Mode, source string) Command {
	return Command{Kind: CommandSet, Mode: mode, Source: source}
}

// Tune returns a tuning command.
func Tune(t Tuning, source string) Command {
	return Command{Kind: CommandTune, Tuning: t, Source: source}
}
