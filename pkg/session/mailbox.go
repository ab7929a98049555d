package session

import (
	"sync/atomic"

	"github.com/teslashibe/go-evergreen/pkg/gesture"
)

// Mailbox holds the most recent hand sample from an asynchronous producer.
// Producers overwrite; the tick loop takes. Intermediate samples are
// discarded, never queued.
type Mailbox struct {
	latest atomic.Pointer[gesture.Sample]

	received    atomic.Uint64
	overwritten atomic.Uint64
}

// Put stores s as the latest sample. Safe for concurrent producers.
func (m *Mailbox) Put(s gesture.Sample) {
	if old := m.latest.Swap(&s); old != nil {
		m.overwritten.Add(1)
	}
	m.received.Add(1)
}

// Take returns the newest sample since the previous Take, or nil if none
// arrived.
func (m *Mailbox) Take() *gesture.Sample {
	return m.latest.Swap(nil)
}

// MailboxStats counts producer traffic.
type MailboxStats struct {
	Received    uint64 `json:"received"`
	Overwritten uint64 `json:"overwritten"`
}

// Stats returns producer counters.
func (m *Mailbox) Stats() MailboxStats {
	return MailboxStats{
		Received:    m.received.Load(),
		Overwritten: m.overwritten.Load(),
	}
}
