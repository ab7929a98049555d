package handsource

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/teslashibe/go-evergreen/pkg/gesture"
)

// RecordingInterval spaces recorded samples that carry no timestamp.
const RecordingInterval = time.Second / 30

// ReadRecording parses a JSON-lines hand recording. Each line is a tracker
// message in any form Decode accepts. Blank lines and non-hand messages
// are skipped; a malformed line is an error naming its line number.
func ReadRecording(r io.Reader) ([]gesture.Sample, error) {
	var (
		samples []gesture.Sample
		clock   = time.UnixMilli(0)
		line    int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		if len(samples) > 0 {
			clock = samples[len(samples)-1].At.Add(RecordingInterval)
		}

		s, err := Decode(data, clock)
		if err != nil {
			if errors.Is(err, ErrNotHand) {
				continue
			}
			return nil, fmt.Errorf("recording line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return samples, nil
}

// Replay sends samples to send, keeping their recorded spacing scaled by
// 1/speed. Samples are restamped with the send time. Gaps that run
// backwards are sent immediately.
func Replay(ctx context.Context, samples []gesture.Sample, speed float64, send func(gesture.Sample) error) error {
	if speed <= 0 {
		speed = 1
	}

	for i, s := range samples {
		if i > 0 {
			gap := time.Duration(float64(s.At.Sub(samples[i-1].At)) / speed)
			if gap > 0 {
				t := time.NewTimer(gap)
				select {
				case <-ctx.Done():
					t.Stop()
					return ctx.Err()
				case <-t.C:
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		s.At = time.Now()
		if err := send(s); err != nil {
			return fmt.Errorf("send sample %d: %w", i, err)
		}
	}
	return nil
}
