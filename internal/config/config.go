// Package config provides the configuration schema, loader, and file
// watcher for the voxsight server.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the voxsight server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Duration is a time.Duration that unmarshals from YAML strings such as
// "800ms" or "8s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"800ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration structure for voxsight.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Inference InferenceConfig `yaml:"inference"`
	Assist    AssistConfig    `yaml:"assist"`
	Vocab     VocabConfig     `yaml:"vocab"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	STT       STTConfig       `yaml:"stt"`
	Scene     SceneConfig     `yaml:"scene"`
}

// ServerConfig holds network and logging settings for the voxsight server.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server (health, metrics)
	// listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// InferenceConfig points at the prediction endpoint.
type InferenceConfig struct {
	// URL is the inference endpoint base URL (http or https).
	URL string `yaml:"url"`

	// Timeout bounds each inference request. Defaults to 8s.
	Timeout Duration `yaml:"timeout"`

	// Breaker tunes the circuit breaker around the endpoint.
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the inference circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the consecutive-failure count that opens the breaker.
	// Defaults to 5.
	MaxFailures int `yaml:"max_failures"`

	// ResetTimeout is how long the breaker stays open before probing.
	// Defaults to 30s.
	ResetTimeout Duration `yaml:"reset_timeout"`
}

// AssistConfig tunes the interpretation pipeline.
type AssistConfig struct {
	// Debounce is how long the transcript must stay unchanged before an
	// utterance is sent for inference. Defaults to 800ms.
	Debounce Duration `yaml:"debounce"`

	// ConfidenceThreshold gates dispatch; predictions below it are held
	// for manual resolution. Defaults to 0.85.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// VocabConfig locates the tokenizer vocabulary.
type VocabConfig struct {
	// Path is the vocabulary file, one token per line.
	Path string `yaml:"path"`
}

// ResolverConfig tunes entity resolution.
type ResolverConfig struct {
	// MinFuzzyScore is the minimum similarity for a fuzzy name match to
	// count, in (0, 1]. Zero keeps the resolver default.
	MinFuzzyScore float64 `yaml:"min_fuzzy_score"`
}

// STTConfig points at the transcript feed.
type STTConfig struct {
	// FeedURL is the transcript feed WebSocket URL (ws or wss).
	FeedURL string `yaml:"feed_url"`
}

// SceneConfig locates the scene inventory.
type SceneConfig struct {
	// NodesPath is the YAML file describing the scene's nodes.
	NodesPath string `yaml:"nodes_path"`
}
