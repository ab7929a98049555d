package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		get   func() string
		want  string
	}{
		{"port default", "PORT", "", Port, DefaultPort},
		{"port env", "PORT", "9090", Port, "9090"},
		{"log level default", "LOG_LEVEL", "", LogLevel, DefaultLogLevel},
		{"log level env", "LOG_LEVEL", "debug", LogLevel, "debug"},
		{"tracker unset", "TRACKER_URL", "", TrackerURL, ""},
		{"tracker env", "TRACKER_URL", "ws://cam:9000/hands", TrackerURL, "ws://cam:9000/hands"},
		{"config path", "EVERGREEN_CONFIG", "/etc/evergreen.toml", ConfigPath, "/etc/evergreen.toml"},
		{"server addr default", "EVERGREEN_ADDR", "", ServerAddr, DefaultServerAddr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if got := tt.get(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evergreen.toml")
	if err := os.WriteFile(path, []byte("[morph]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, func() { calls.Add(1) }) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files are ignored.
	os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644)

	// A burst of writes is one reload.
	for i := 0; i < 3; i++ {
		os.WriteFile(path, []byte("[morph]\nlerp_speed = 3.0\n"), 0o644)
	}

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(3 * settle)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Watch() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "x.toml"), func() {})
	if err == nil {
		t.Error("Watch() should fail for a missing directory")
	}
}
