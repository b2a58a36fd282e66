package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxsight/voxsight/internal/config"
)

// writeConfig writes yaml to path and bumps the mtime so the watcher's
// modification check sees the change regardless of filesystem timestamp
// granularity.
func writeConfig(t *testing.T, path, yaml string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voxsight.yaml")
	base := time.Now().Add(-time.Minute)
	writeConfig(t, path, validYAML, base)

	changed := make(chan *config.Config, 1)
	w, err := config.NewWatcher(path, func(old, new *config.Config) {
		changed <- new
	}, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Current().Server.LogLevel; got != config.LogDebug {
		t.Fatalf("initial LogLevel = %q; want debug", got)
	}

	// Same content with a new mtime must not fire the callback.
	writeConfig(t, path, validYAML, base.Add(time.Second))
	select {
	case <-changed:
		t.Fatal("onChange fired for identical content")
	case <-time.After(100 * time.Millisecond):
	}

	writeConfig(t, path, `
inference:
  url: http://localhost:5000/predict
vocab:
  path: vocab.txt
`, base.Add(2*time.Second))

	select {
	case cfg := <-changed:
		if cfg.Server.LogLevel != config.LogInfo {
			t.Errorf("reloaded LogLevel = %q; want info", cfg.Server.LogLevel)
		}
		if w.Current() != cfg {
			t.Error("Current() does not return the reloaded config")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcher_KeepsOldConfigOnInvalidEdit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voxsight.yaml")
	base := time.Now().Add(-time.Minute)
	writeConfig(t, path, validYAML, base)

	w, err := config.NewWatcher(path, func(old, new *config.Config) {
		t.Error("onChange fired for an invalid config")
	}, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeConfig(t, path, "server:\n  log_level: loud\n", base.Add(time.Second))
	time.Sleep(100 * time.Millisecond)

	if got := w.Current().Server.LogLevel; got != config.LogDebug {
		t.Errorf("Current().LogLevel = %q; want the pre-edit value debug", got)
	}
}

func TestNewWatcher_InvalidInitialConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voxsight.yaml")
	writeConfig(t, path, "nonsense: true\n", time.Now())

	if _, err := config.NewWatcher(path, nil); err == nil {
		t.Fatal("NewWatcher succeeded on invalid config; want error")
	}
}

func TestCompare_TracksHotReloadableFields(t *testing.T) {
	t.Parallel()

	old := &config.Config{}
	old.Server.LogLevel = config.LogInfo
	old.Assist.ConfidenceThreshold = 0.85
	old.Resolver.MinFuzzyScore = 0

	same := *old
	if d := config.Compare(old, &same); d.Any() {
		t.Errorf("Compare(identical) = %+v; want no changes", d)
	}

	next := *old
	next.Server.LogLevel = config.LogWarn
	next.Assist.ConfidenceThreshold = 0.9
	d := config.Compare(old, &next)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogWarn {
		t.Errorf("LogLevel diff = %+v; want change to warn", d)
	}
	if !d.ThresholdChanged || d.NewThreshold != 0.9 {
		t.Errorf("Threshold diff = %+v; want change to 0.9", d)
	}
	if d.FuzzyChanged {
		t.Error("FuzzyChanged = true; want false")
	}
}
