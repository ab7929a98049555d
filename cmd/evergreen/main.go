// evergreen serves a particle tree session over HTTP and WebSocket.
// Hand trackers connect to /ws/tracker; viewers follow /ws/state.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-evergreen/internal/config"
	"github.com/teslashibe/go-evergreen/internal/log"
	"github.com/teslashibe/go-evergreen/pkg/gesture"
	"github.com/teslashibe/go-evergreen/pkg/handsource"
	"github.com/teslashibe/go-evergreen/pkg/ingest"
	"github.com/teslashibe/go-evergreen/pkg/session"
	"github.com/teslashibe/go-evergreen/pkg/web"
)

func main() {
	port := flag.String("port", config.Port(), "HTTP server port")
	configPath := flag.String("config", config.ConfigPath(), "TOML config file (optional)")
	tracker := flag.String("tracker", config.TrackerURL(), "Upstream tracker WebSocket URL (optional)")
	static := flag.String("static", "", "Directory served at / (optional)")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	seed := flag.Uint64("seed", 0, "Dataset seed (0 keeps the configured seed)")
	watch := flag.Bool("watch", true, "Reload tuning when the config file changes")
	flag.Parse()

	log.Init(*logLevel)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Particles.Seed = *seed
	}

	sess, err := session.New(cfg)
	if err != nil {
		log.Error("session start failed", "error", err)
		os.Exit(1)
	}
	runner := session.NewRunner(sess)

	srvCfg := web.DefaultConfig()
	srvCfg.Port, srvCfg.StaticDir = *port, *static
	srv := web.NewServer(runner, srvCfg)
	runner.OnTick(srv.Publish)

	trackers := ingest.NewHub()
	trackers.OnHand(func(_ string, s gesture.Sample) {
		runner.Mailbox().Put(s)
	})
	trackers.RegisterRoutes(srv.App())
	trackers.RegisterAPIRoutes(srv.API())
	srv.AddStats("ingest", func() any { return trackers.GetStats() })

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *tracker != "" {
		src := handsource.New(handsource.DefaultConfig(*tracker))
		srv.AddStats("upstream", func() any { return src.Stats() })
		go src.Run(ctx, runner.Mailbox().Put)
	}

	if *configPath != "" && *watch {
		go watchTuning(ctx, *configPath, runner)
	}

	go runner.Run(ctx)

	log.Info("evergreen started",
		"session_id", sess.ID(),
		"port", *port,
		"particles", sess.Dataset().Count(),
		"seed", sess.Dataset().Seed,
	)
	if err := srv.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("evergreen stopped")
}

func loadConfig(path string) (session.Config, error) {
	if path == "" {
		return session.DefaultConfig(), nil
	}
	return session.LoadConfig(path)
}

// watchTuning feeds runtime-adjustable settings from the config file into
// the running session. Other changes need a restart.
func watchTuning(ctx context.Context, path string, runner *session.Runner) {
	err := config.Watch(ctx, path, func() {
		cfg, err := session.LoadConfig(path)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if !runner.Submit(session.Tune(cfg.Tuning(), "config")) {
			log.Warn("config reload dropped")
			return
		}
		log.Info("tuning reloaded", "tuning", cfg.Tuning())
	})
	if err != nil && ctx.Err() == nil {
		log.Warn("config watch stopped", "error", err)
	}
}
