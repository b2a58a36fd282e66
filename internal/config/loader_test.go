package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/voxsight/voxsight/internal/config"
)

const validYAML = `
server:
  listen_addr: ":9090"
  log_level: debug
inference:
  url: http://localhost:5000/predict
  timeout: 2s
  breaker:
    max_failures: 3
    reset_timeout: 10s
assist:
  debounce: 500ms
  confidence_threshold: 0.9
vocab:
  path: testdata/vocab.txt
resolver:
  min_fuzzy_score: 0.7
stt:
  feed_url: ws://localhost:5001/feed
scene:
  nodes_path: testdata/nodes.yaml
`

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q; want :9090", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("LogLevel = %q; want debug", cfg.Server.LogLevel)
	}
	if got := cfg.Inference.Timeout.Std(); got != 2*time.Second {
		t.Errorf("Inference.Timeout = %s; want 2s", got)
	}
	if cfg.Inference.Breaker.MaxFailures != 3 {
		t.Errorf("Breaker.MaxFailures = %d; want 3", cfg.Inference.Breaker.MaxFailures)
	}
	if got := cfg.Assist.Debounce.Std(); got != 500*time.Millisecond {
		t.Errorf("Assist.Debounce = %s; want 500ms", got)
	}
	if cfg.Assist.ConfidenceThreshold != 0.9 {
		t.Errorf("ConfidenceThreshold = %v; want 0.9", cfg.Assist.ConfidenceThreshold)
	}
	if cfg.Resolver.MinFuzzyScore != 0.7 {
		t.Errorf("MinFuzzyScore = %v; want 0.7", cfg.Resolver.MinFuzzyScore)
	}
	if cfg.STT.FeedURL != "ws://localhost:5001/feed" {
		t.Errorf("FeedURL = %q", cfg.STT.FeedURL)
	}
	if cfg.Scene.NodesPath != "testdata/nodes.yaml" {
		t.Errorf("NodesPath = %q", cfg.Scene.NodesPath)
	}
}

func TestLoadFromReader_AppliesDefaults(t *testing.T) {
	t.Parallel()

	minimal := `
inference:
  url: http://localhost:5000/predict
vocab:
  path: vocab.txt
`
	cfg, err := config.LoadFromReader(strings.NewReader(minimal))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != config.DefaultListenAddr {
		t.Errorf("ListenAddr = %q; want default %q", cfg.Server.ListenAddr, config.DefaultListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("LogLevel = %q; want info", cfg.Server.LogLevel)
	}
	if got := cfg.Inference.Timeout.Std(); got != 8*time.Second {
		t.Errorf("Inference.Timeout = %s; want 8s", got)
	}
	if cfg.Inference.Breaker.MaxFailures != config.DefaultBreakerMaxFailures {
		t.Errorf("Breaker.MaxFailures = %d; want %d", cfg.Inference.Breaker.MaxFailures, config.DefaultBreakerMaxFailures)
	}
	if got := cfg.Inference.Breaker.ResetTimeout.Std(); got != config.DefaultBreakerResetTimeout {
		t.Errorf("Breaker.ResetTimeout = %s; want %s", got, config.DefaultBreakerResetTimeout)
	}
	if got := cfg.Assist.Debounce.Std(); got != 800*time.Millisecond {
		t.Errorf("Assist.Debounce = %s; want 800ms", got)
	}
	if cfg.Assist.ConfidenceThreshold != 0.85 {
		t.Errorf("ConfidenceThreshold = %v; want 0.85", cfg.Assist.ConfidenceThreshold)
	}
}

func TestLoadFromReader_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "serverr:\n  listen_addr: \":8080\"\n",
			want: "decode yaml",
		},
		{
			name: "bad log level",
			yaml: "server:\n  log_level: loud\ninference:\n  url: http://x\nvocab:\n  path: v.txt\n",
			want: "server.log_level",
		},
		{
			name: "missing inference url",
			yaml: "vocab:\n  path: v.txt\n",
			want: "inference.url is required",
		},
		{
			name: "inference url bad scheme",
			yaml: "inference:\n  url: ftp://host/predict\nvocab:\n  path: v.txt\n",
			want: "inference.url",
		},
		{
			name: "missing vocab path",
			yaml: "inference:\n  url: http://x\n",
			want: "vocab.path is required",
		},
		{
			name: "bad duration",
			yaml: "inference:\n  url: http://x\n  timeout: fast\nvocab:\n  path: v.txt\n",
			want: "parse duration",
		},
		{
			name: "threshold out of range",
			yaml: "inference:\n  url: http://x\nassist:\n  confidence_threshold: 1.5\nvocab:\n  path: v.txt\n",
			want: "confidence_threshold",
		},
		{
			name: "fuzzy score out of range",
			yaml: "inference:\n  url: http://x\nresolver:\n  min_fuzzy_score: -0.2\nvocab:\n  path: v.txt\n",
			want: "min_fuzzy_score",
		},
		{
			name: "feed url wrong scheme",
			yaml: "inference:\n  url: http://x\nstt:\n  feed_url: http://feed\nvocab:\n  path: v.txt\n",
			want: "stt.feed_url",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("LoadFromReader succeeded; want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := config.Load("testdata/does-not-exist.yaml"); err == nil {
		t.Fatal("Load succeeded on a missing file; want error")
	}
}
