package reload

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Level string `yaml:"level"`
}

func (c *testConfig) Validate() error { return nil }

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func() *testConfig { return &testConfig{} }, logger, func(c *testConfig) {
			got <- c.Level
		})
	}()

	// Let the watcher register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case level := <-got:
		if level != "debug" {
			t.Errorf("level = %q, want debug", level)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		_ = Watch(ctx, path, func() *testConfig { return &testConfig{} }, logger, func(c *testConfig) {
			got <- c.Level
		})
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case level := <-got:
		t.Errorf("unexpected reload with level %q", level)
	case <-time.After(Debounce + 300*time.Millisecond):
	}
}
