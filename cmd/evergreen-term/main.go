// evergreen-term draws a particle tree session in the terminal. The mouse
// stands in for the hand tracker unless -tracker is given.
//
// Keys: space toggles, o/f show an open palm or fist, h hides the hand,
// +/- or the wheel pinch, q quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/teslashibe/go-evergreen/internal/config"
	"github.com/teslashibe/go-evergreen/internal/log"
	"github.com/teslashibe/go-evergreen/pkg/handsource"
	"github.com/teslashibe/go-evergreen/pkg/session"
	"github.com/teslashibe/go-evergreen/pkg/termview"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "evergreen-term:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.ConfigPath(), "TOML config file (optional)")
	tracker := flag.String("tracker", config.TrackerURL(), "Upstream tracker WebSocket URL (optional)")
	logFile := flag.String("log", "", "Write logs to this file (default: discard)")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	foliage := flag.Int("foliage", 6000, "Foliage count; the terminal needs far fewer than a GPU")
	drawEvery := flag.Int("draw-every", 2, "Redraw every N ticks")
	flag.Parse()

	var logOut io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	log.InitWriter(*logLevel, logOut)

	cfg := session.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = session.LoadConfig(*configPath); err != nil {
			return err
		}
	} else {
		cfg.Particles.FoliageCount = *foliage
	}

	sess, err := session.New(cfg)
	if err != nil {
		return err
	}
	runner := session.NewRunner(sess)

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	viewCfg := termview.DefaultConfig()
	viewCfg.DrawEvery = *drawEvery
	viewCfg.MouseHand = *tracker == ""
	view := termview.New(screen, viewCfg)
	runner.OnTick(view.Draw)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *tracker != "" {
		src := handsource.New(handsource.DefaultConfig(*tracker))
		go src.Run(ctx, runner.Mailbox().Put)
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		runner.Run(ctx)
	}()

	log.Info("evergreen-term started", "session_id", sess.ID(), "particles", sess.Dataset().Count())
	err = view.Run(ctx, runner)

	// Stop drawing before the screen is torn down.
	cancel()
	<-stopped
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}
