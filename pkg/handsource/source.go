// Package handsource connects to hand trackers over WebSocket: Source
// pulls samples from an upstream tracker, Publisher pushes samples into an
// evergreen server's tracker endpoint.
package handsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-evergreen/internal/log"
	"github.com/teslashibe/go-evergreen/pkg/gesture"
	"github.com/teslashibe/go-evergreen/pkg/protocol"
)

// Config holds upstream connection settings.
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration // No message for this long drops the connection
	ReconnectMin     time.Duration
	ReconnectMax     time.Duration
}

// DefaultConfig returns connection defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      30 * time.Second,
		ReconnectMin:     500 * time.Millisecond,
		ReconnectMax:     10 * time.Second,
	}
}

// Sink receives samples. It runs on the source's read goroutine and must
// not block; session.Mailbox.Put is the usual sink.
type Sink func(gesture.Sample)

// Source pulls hand samples from an upstream tracker and reconnects when
// the connection drops.
type Source struct {
	cfg Config
	log *slog.Logger

	connected  atomic.Bool
	received   atomic.Uint64
	malformed  atomic.Uint64
	reconnects atomic.Uint64
}

// New creates a source.
func New(cfg Config) *Source {
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = 500 * time.Millisecond
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = cfg.ReconnectMin
	}
	return &Source{
		cfg: cfg,
		log: log.Component("handsource").With("url", cfg.URL),
	}
}

// Run reads samples into sink until ctx is cancelled. Every lost
// connection is reported to sink as an inactive sample so the session
// treats it as tracking loss.
func (s *Source) Run(ctx context.Context, sink Sink) error {
	backoff := s.cfg.ReconnectMin

	for {
		started := time.Now()
		err := s.stream(ctx, sink)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if time.Since(started) > s.cfg.ReconnectMax {
			backoff = s.cfg.ReconnectMin
		}
		s.log.Warn("tracker connection lost", "error", err, "retry_in", backoff)
		s.reconnects.Add(1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, s.cfg.ReconnectMax)
	}
}

func (s *Source) stream(ctx context.Context, sink Sink) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.cfg.HandshakeTimeout,
	}

	ws, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial tracker: %w", err)
	}
	defer ws.Close()

	s.connected.Store(true)
	s.log.Info("tracker connected")
	defer func() {
		s.connected.Store(false)
		sink(gesture.Sample{X: 0.5, Y: 0.5, At: time.Now()})
	}()

	// Unblock ReadMessage on cancel.
	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()

	for {
		if s.cfg.ReadTimeout > 0 {
			ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}

		sample, err := Decode(data, time.Now())
		if err != nil {
			s.malformed.Add(1)
			s.log.Debug("skipping tracker message", "error", err)
			continue
		}
		s.received.Add(1)
		sink(sample)
	}
}

// ErrNotHand is returned by Decode for well-formed messages that carry no
// hand sample.
var ErrNotHand = errors.New("handsource: not a hand message")

// Decode parses a tracker message. It accepts the protocol envelope with
// type "hand" and also a bare hand object. now stamps samples that carry
// no timestamp.
func Decode(data []byte, now time.Time) (gesture.Sample, error) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		return gesture.Sample{}, err
	}

	switch msg.Type {
	case protocol.TypeHand:
		hand, err := msg.GetHandData()
		if err != nil {
			return gesture.Sample{}, err
		}
		at := msg.Time()
		if at.IsZero() {
			at = now
		}
		return hand.Sample(at), nil

	case "":
		var hand protocol.HandData
		if err := json.Unmarshal(data, &hand); err != nil {
			return gesture.Sample{}, err
		}
		return hand.Sample(now), nil

	default:
		return gesture.Sample{}, fmt.Errorf("%w: %q", ErrNotHand, msg.Type)
	}
}

// Stats counts upstream traffic.
type Stats struct {
	Connected  bool   `json:"connected"`
	Received   uint64 `json:"received"`
	Malformed  uint64 `json:"malformed"`
	Reconnects uint64 `json:"reconnects"`
}

// Stats returns source counters.
func (s *Source) Stats() Stats {
	return Stats{
		Connected:  s.connected.Load(),
		Received:   s.received.Load(),
		Malformed:  s.malformed.Load(),
		Reconnects: s.reconnects.Load(),
	}
}
