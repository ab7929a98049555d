package ingest

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-evergreen/pkg/protocol"
)

// ErrUnsupportedMessage is returned to trackers that send a message type
// the ingest endpoint does not accept.
var ErrUnsupportedMessage = errors.New("ingest: unsupported message type")

func errUnsupported(t protocol.MessageType) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedMessage, t)
}
