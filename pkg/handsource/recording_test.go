package handsource

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-evergreen/pkg/gesture"
)

const recording = `{"type":"hand","ts":1000,"data":{"x":0.2,"y":0.5,"active":true,"pose":"Open_Palm"}}

{"x":0.3,"y":0.5,"active":true}
{"type":"ping","data":{"id":"a","ts":1}}
{"type":"hand","ts":1100,"data":{"x":0.4,"y":0.5,"active":false}}
`

func TestReadRecording(t *testing.T) {
	samples, err := ReadRecording(strings.NewReader(recording))
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, gesture.PoseOpenPalm, samples[0].Pose)
	assert.Equal(t, time.UnixMilli(1000), samples[0].At)

	// Untimed lines follow the previous sample.
	assert.Equal(t, 0.3, samples[1].X)
	assert.Equal(t, RecordingInterval, samples[1].At.Sub(samples[0].At))

	assert.False(t, samples[2].Active)
	assert.Equal(t, time.UnixMilli(1100), samples[2].At)
}

func TestReadRecordingMalformed(t *testing.T) {
	_, err := ReadRecording(strings.NewReader("{\"x\":0.1}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadRecordingEmpty(t *testing.T) {
	samples, err := ReadRecording(strings.NewReader("\n\n"))
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestReplayKeepsSpacing(t *testing.T) {
	base := time.UnixMilli(0)
	samples := []gesture.Sample{
		{X: 0.1, At: base},
		{X: 0.2, At: base.Add(40 * time.Millisecond)},
		{X: 0.3, At: base.Add(80 * time.Millisecond)},
	}

	var sent []gesture.Sample
	start := time.Now()
	err := Replay(context.Background(), samples, 2, func(s gesture.Sample) error {
		sent = append(sent, s)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, sent, 3)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	for i, s := range sent {
		assert.Equal(t, samples[i].X, s.X)
		assert.False(t, s.At.Before(start), "sample %d should be restamped", i)
	}
}

func TestReplayStops(t *testing.T) {
	samples := []gesture.Sample{
		{At: time.UnixMilli(0)},
		{At: time.UnixMilli(60_000)},
	}

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		calls := 0
		err := Replay(ctx, samples, 1, func(gesture.Sample) error { calls++; return nil })
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, calls)
	})

	t.Run("send error", func(t *testing.T) {
		boom := errors.New("boom")
		err := Replay(context.Background(), samples, 1, func(gesture.Sample) error { return boom })
		assert.ErrorIs(t, err, boom)
	})
}
