// handreplay plays a recorded hand-tracking session into an evergreen
// server as if it came from a live tracker.
//
// Usage: handreplay [flags] recording.jsonl | https://host/recording.jsonl
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/go-evergreen/internal/config"
	"github.com/teslashibe/go-evergreen/internal/httpc"
	"github.com/teslashibe/go-evergreen/internal/log"
	"github.com/teslashibe/go-evergreen/pkg/gesture"
	"github.com/teslashibe/go-evergreen/pkg/handsource"
)

func main() {
	server := flag.String("server", config.ServerAddr(), "evergreen server host:port")
	id := flag.String("id", "replay", "Tracker ID reported to the server")
	speed := flag.Float64("speed", 1, "Playback speed multiplier")
	loop := flag.Bool("loop", false, "Repeat the recording until interrupted")
	wait := flag.Duration("wait", 10*time.Second, "How long to wait for the server to come up")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: handreplay [flags] <recording>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, flag.Arg(0), *server, *id, *speed, *loop, *wait); err != nil && ctx.Err() == nil {
		log.Error("replay failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, source, server, id string, speed float64, loop bool, wait time.Duration) error {
	samples, err := load(ctx, source)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("%s: no hand samples", source)
	}

	if err := waitForServer(ctx, "http://"+server+"/api/state", wait); err != nil {
		return err
	}

	pub, err := handsource.Dial(ctx, "ws://"+server+"/ws/tracker/"+id)
	if err != nil {
		return err
	}
	defer pub.Close()

	span := samples[len(samples)-1].At.Sub(samples[0].At)
	log.Info("replaying", "source", source, "samples", len(samples), "duration", span, "speed", speed)

	for {
		if err := handsource.Replay(ctx, samples, speed, pub.Send); err != nil {
			return err
		}
		if !loop {
			break
		}
	}

	// Leave the session with no hand rather than a frozen one.
	if err := pub.Send(gesture.Sample{At: time.Now()}); err != nil {
		return err
	}
	log.Info("replay finished", "sent", pub.Sent())
	return nil
}

// load reads a recording from a file or an http(s) URL.
func load(ctx context.Context, source string) ([]gesture.Sample, error) {
	var r io.Reader
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err := httpc.Fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(body)
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return handsource.ReadRecording(r)
}

// waitForServer polls url until it answers or wait elapses.
func waitForServer(ctx context.Context, url string, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	for {
		_, err := httpc.Fetch(ctx, url)
		if err == nil {
			return nil
		}
		log.Debug("server not ready", "url", url, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("server %s not ready: %w", url, err)
		case <-time.After(250 * time.Millisecond):
		}
	}
}
