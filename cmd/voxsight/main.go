// Command voxsight is the voice command interpretation server for the
// voxsight scene viewer.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/voxsight/voxsight/internal/assist"
	"github.com/voxsight/voxsight/internal/config"
	"github.com/voxsight/voxsight/internal/dispatch"
	"github.com/voxsight/voxsight/internal/health"
	"github.com/voxsight/voxsight/internal/infer"
	"github.com/voxsight/voxsight/internal/observe"
	"github.com/voxsight/voxsight/internal/resolve"
	"github.com/voxsight/voxsight/internal/stt"
	"github.com/voxsight/voxsight/internal/stt/stdinfeed"
	"github.com/voxsight/voxsight/internal/stt/wsfeed"
	"github.com/voxsight/voxsight/pkg/scene"
	"github.com/voxsight/voxsight/pkg/tokenize"
	"github.com/voxsight/voxsight/pkg/vocab"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "voxsight.yaml", "path to the YAML configuration file")
	listen := flag.Bool("listen", true, "start listening to the transcript feed immediately")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxsight: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxsight: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	slog.Info("voxsight starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics provider ──────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxsight",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise metrics provider", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Vocabulary and tokenizer ──────────────────────────────────────────────
	voc, err := vocab.Load(cfg.Vocab.Path)
	if err != nil {
		slog.Error("failed to load vocabulary", "path", cfg.Vocab.Path, "err", err)
		return 1
	}
	tokenizer := tokenize.New(voc)
	slog.Info("vocabulary loaded", "path", cfg.Vocab.Path, "tokens", voc.Len())

	// ── Scene inventory ───────────────────────────────────────────────────────
	store := scene.NewMemStore()
	if cfg.Scene.NodesPath != "" {
		store, err = scene.LoadNodesFile(cfg.Scene.NodesPath)
		if err != nil {
			slog.Error("failed to load scene nodes", "path", cfg.Scene.NodesPath, "err", err)
			return 1
		}
		slog.Info("scene inventory loaded", "path", cfg.Scene.NodesPath, "nodes", store.Len())
	} else {
		slog.Warn("scene.nodes_path not set; commands will resolve no targets")
	}

	// ── Pipeline components ───────────────────────────────────────────────────
	client, err := infer.NewClient(cfg.Inference.URL,
		infer.WithTimeout(cfg.Inference.Timeout.Std()),
		infer.WithBreaker(cfg.Inference.Breaker.MaxFailures, cfg.Inference.Breaker.ResetTimeout.Std()),
		infer.WithMetrics(metrics),
	)
	if err != nil {
		slog.Error("failed to create inference client", "err", err)
		return 1
	}

	resolver := resolve.New(
		resolve.WithMinFuzzyScore(cfg.Resolver.MinFuzzyScore),
		resolve.WithMetrics(metrics),
	)

	controller := &loggingController{}
	dispatcher := dispatch.New(resolver, controller,
		dispatch.WithThreshold(cfg.Assist.ConfidenceThreshold),
		dispatch.WithMetrics(metrics),
	)

	var provider stt.Provider
	if cfg.STT.FeedURL != "" {
		provider, err = wsfeed.New(cfg.STT.FeedURL)
		if err != nil {
			slog.Error("failed to create transcript feed", "err", err)
			return 1
		}
	} else {
		slog.Info("stt.feed_url not set; reading transcript lines from stdin")
		provider = stdinfeed.New()
	}

	assistant := assist.New(provider, client, dispatcher, store,
		assist.WithDebounce(cfg.Assist.Debounce.Std()),
		assist.WithMetrics(metrics),
	)

	// ── Config watcher (hot-reload of the log level) ──────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Compare(old, new)
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if d.ThresholdChanged || d.FuzzyChanged {
			slog.Warn("threshold or fuzzy score changed in config; restart to apply")
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── HTTP surface: health, readiness, metrics ──────────────────────────────
	checks := health.New(
		health.Reachable("inference", cfg.Inference.URL, nil),
		health.NonEmpty("scene", store.Len),
	)
	mux := http.NewServeMux()
	checks.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /debug/tokenize", tokenizeHandler(tokenizer))

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := assistant.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if *listen {
		assistant.SetListening(true)
	}
	g.Go(func() error {
		logUpdates(gctx, assistant)
		return nil
	})

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := g.Wait(); err != nil {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// tokenizeHandler serves a debug view of the WordPiece split for an
// utterance, useful for checking vocabulary coverage.
func tokenizeHandler(t *tokenize.Tokenizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			http.Error(w, "missing query parameter q", http.StatusBadRequest)
			return
		}
		ts := t.Tokenize(q)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := json.NewEncoder(w).Encode(ts); err != nil {
			slog.Warn("tokenize debug encode error", "err", err)
		}
	}
}

// logUpdates drains the assistant's outcome channel so operators can follow
// interpreted commands in the log.
func logUpdates(ctx context.Context, a *assist.Assistant) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-a.Updates():
			if u.Err != nil {
				slog.Error("listening session failed", "err", u.Err)
				continue
			}
			slog.Info("command interpreted",
				"utterance", u.Utterance,
				"action", u.Result.Action,
				"dispatched", u.Result.Dispatched,
				"targets", len(u.Result.Targets),
			)
		}
	}
}

// loggingController is the default scene controller: it logs effect calls.
// A real viewer integration replaces this with its own scene.Controller.
type loggingController struct{}

var _ scene.Controller = (*loggingController)(nil)

func (loggingController) Hide(ctx context.Context, ids []int) error {
	slog.Info("scene: hide", "targets", len(ids))
	return nil
}

func (loggingController) Isolate(ctx context.Context, ids []int) error {
	slog.Info("scene: isolate", "targets", len(ids))
	return nil
}

func (loggingController) Zoom(ctx context.Context, dir scene.Direction) error {
	slog.Info("scene: zoom", "direction", dir)
	return nil
}

func (loggingController) Look(ctx context.Context, dir scene.Direction) error {
	slog.Info("scene: look", "direction", dir)
	return nil
}

func (loggingController) Pan(ctx context.Context, dir scene.Direction) error {
	slog.Info("scene: pan", "direction", dir)
	return nil
}

// slogLevel maps a config log level to its slog equivalent.
func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
