package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/voxsight/voxsight/internal/assist"
	"github.com/voxsight/voxsight/internal/dispatch"
	"github.com/voxsight/voxsight/internal/infer"
)

// Defaults applied by [applyDefaults] for fields left unset.
const (
	DefaultListenAddr          = ":8080"
	DefaultBreakerMaxFailures  = 5
	DefaultBreakerResetTimeout = 30 * time.Second
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills unset fields with their documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Inference.Timeout == 0 {
		cfg.Inference.Timeout = Duration(infer.DefaultTimeout)
	}
	if cfg.Inference.Breaker.MaxFailures == 0 {
		cfg.Inference.Breaker.MaxFailures = DefaultBreakerMaxFailures
	}
	if cfg.Inference.Breaker.ResetTimeout == 0 {
		cfg.Inference.Breaker.ResetTimeout = Duration(DefaultBreakerResetTimeout)
	}
	if cfg.Assist.Debounce == 0 {
		cfg.Assist.Debounce = Duration(assist.DefaultDebounce)
	}
	if cfg.Assist.ConfidenceThreshold == 0 {
		cfg.Assist.ConfidenceThreshold = dispatch.DefaultConfidenceThreshold
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Inference.URL == "" {
		errs = append(errs, errors.New("inference.url is required"))
	} else if err := validateURL("inference.url", cfg.Inference.URL, "http", "https"); err != nil {
		errs = append(errs, err)
	}
	if cfg.Inference.Timeout < 0 {
		errs = append(errs, fmt.Errorf("inference.timeout %s must not be negative", cfg.Inference.Timeout.Std()))
	}
	if cfg.Inference.Breaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("inference.breaker.max_failures %d must not be negative", cfg.Inference.Breaker.MaxFailures))
	}

	if cfg.Assist.Debounce < 0 {
		errs = append(errs, fmt.Errorf("assist.debounce %s must not be negative", cfg.Assist.Debounce.Std()))
	}
	if cfg.Assist.ConfidenceThreshold < 0 || cfg.Assist.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("assist.confidence_threshold %.2f is out of range [0, 1]", cfg.Assist.ConfidenceThreshold))
	}

	if cfg.Vocab.Path == "" {
		errs = append(errs, errors.New("vocab.path is required"))
	}

	if cfg.Resolver.MinFuzzyScore < 0 || cfg.Resolver.MinFuzzyScore > 1 {
		errs = append(errs, fmt.Errorf("resolver.min_fuzzy_score %.2f is out of range [0, 1]", cfg.Resolver.MinFuzzyScore))
	}

	if cfg.STT.FeedURL != "" {
		if err := validateURL("stt.feed_url", cfg.STT.FeedURL, "ws", "wss"); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// validateURL checks that raw parses and uses one of the given schemes.
func validateURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s %q is not a valid URL: %w", field, raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%s %q must use one of the schemes %v", field, raw, schemes)
}
