// Package assist runs the end-to-end interpretation loop: it consumes a
// transcript stream, debounces it, sends settled utterances to the
// inference service, and hands predictions to the action dispatcher.
//
// The [Assistant] is a single-goroutine actor. All pipeline state lives in
// the [Assistant.Run] loop; the exported accessors read a snapshot the
// actor maintains, so observers never contend with the pipeline itself.
package assist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voxsight/voxsight/internal/dispatch"
	"github.com/voxsight/voxsight/internal/observe"
	"github.com/voxsight/voxsight/internal/stt"
	"github.com/voxsight/voxsight/pkg/prediction"
	"github.com/voxsight/voxsight/pkg/scene"
)

// DefaultDebounce is how long the transcript must stay unchanged before an
// utterance is considered settled and sent for inference.
const DefaultDebounce = 800 * time.Millisecond

// Predictor obtains a prediction for an utterance. *infer.Client satisfies
// this.
type Predictor interface {
	Predict(ctx context.Context, text string) (*prediction.Prediction, error)
}

// Commander executes a prediction against the scene. *dispatch.Dispatcher
// satisfies this.
type Commander interface {
	Dispatch(ctx context.Context, pred *prediction.Prediction, source scene.NodeSource) dispatch.Result
}

// Update is one pipeline outcome, published on [Assistant.Updates] after a
// prediction completes and dispatch has run, or when a listening session
// fails.
type Update struct {
	// Utterance is the settled transcript text that was interpreted.
	Utterance string

	// Prediction is the decoded inference result.
	Prediction *prediction.Prediction

	// Result is the dispatch outcome for the prediction.
	Result dispatch.Result

	// Err is set when a listening session could not be opened or ended with
	// a capture-layer error. The other fields are zero in that case.
	Err error
}

// Option configures an [Assistant].
type Option func(*Assistant)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.debounce = d
		}
	}
}

// WithClock overrides the timer source. Tests use this to drive the
// debounce window manually.
func WithClock(c Clock) Option {
	return func(a *Assistant) {
		a.clock = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) {
		a.log = l
	}
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Assistant) {
		a.metrics = m
	}
}

// Assistant owns one interpretation pipeline over one transcript provider.
type Assistant struct {
	provider  stt.Provider
	predictor Predictor
	commander Commander
	source    scene.NodeSource

	debounce time.Duration
	clock    Clock
	log      *slog.Logger
	metrics  *observe.Metrics

	control chan bool
	updates chan Update

	mu        sync.RWMutex
	listening bool
	pred      *prediction.Prediction
}

// New creates an Assistant. The pipeline does nothing until [Assistant.Run]
// is started and listening is enabled with [Assistant.SetListening].
func New(provider stt.Provider, predictor Predictor, commander Commander, source scene.NodeSource, opts ...Option) *Assistant {
	a := &Assistant{
		provider:  provider,
		predictor: predictor,
		commander: commander,
		source:    source,
		debounce:  DefaultDebounce,
		clock:     realClock{},
		log:       slog.Default(),
		control:   make(chan bool, 16),
		updates:   make(chan Update, 16),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// SetListening toggles the listening session. Enabling while already
// listening, or disabling while idle, is a no-op.
func (a *Assistant) SetListening(on bool) {
	a.control <- on
}

// Listening reports whether a transcript session is currently open.
func (a *Assistant) Listening() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.listening
}

// Prediction returns the most recent completed prediction, or nil when the
// pipeline has none (including after a listening session was stopped).
func (a *Assistant) Prediction() *prediction.Prediction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pred
}

// Updates returns the channel of pipeline outcomes. Sends never block the
// pipeline; outcomes are dropped when the channel is full.
func (a *Assistant) Updates() <-chan Update {
	return a.updates
}

// inferResult carries one inference outcome back into the actor loop.
type inferResult struct {
	seq  uint64
	text string
	pred *prediction.Prediction
	err  error
}

// Run executes the pipeline until ctx is cancelled; it returns ctx.Err().
// Capture-layer failures are terminal for the listening session only: the
// session is torn down, the error is published on [Assistant.Updates], and
// the loop keeps accepting [Assistant.SetListening] so listening can be
// re-enabled.
func (a *Assistant) Run(ctx context.Context) error {
	timer := a.clock.NewTimer()
	defer timer.Stop()

	var (
		sess        stt.Session
		transcripts <-chan stt.Transcript
		pending     string
		havePending bool
		lastHeard   string
		seq         uint64
	)
	results := make(chan inferResult, 16)

	stopSession := func() {
		if sess == nil {
			return
		}
		if err := sess.Close(); err != nil {
			a.log.Warn("assist: close session", "err", err)
		}
		sess = nil
		transcripts = nil
		timer.Stop()
		pending, havePending = "", false
		lastHeard = ""
		seq++ // discard any in-flight inference
		a.setSnapshot(false, nil)
		if a.metrics != nil {
			a.metrics.ActiveSessions.Add(ctx, -1)
		}
	}
	defer stopSession()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case on := <-a.control:
			if on == (sess != nil) {
				continue
			}
			if !on {
				a.log.Info("assist: listening stopped")
				stopSession()
				continue
			}
			s, err := a.provider.Listen(ctx)
			if err != nil {
				err = fmt.Errorf("assist: start listening: %w", err)
				a.log.Error("assist: listening failed to start", "err", err)
				a.publish(Update{Err: err})
				continue
			}
			sess = s
			transcripts = s.Transcripts()
			a.setListening(true)
			if a.metrics != nil {
				a.metrics.ActiveSessions.Add(ctx, 1)
			}
			a.log.Info("assist: listening started")

		case t, ok := <-transcripts:
			if !ok {
				err := sess.Err()
				stopSession()
				if err != nil {
					err = fmt.Errorf("assist: transcript session: %w", err)
					a.log.Error("assist: transcript session failed", "err", err)
					a.publish(Update{Err: err})
				} else {
					a.log.Info("assist: transcript session ended")
				}
				continue
			}
			text := strings.TrimSpace(t.Text)
			if text == "" || text == lastHeard {
				continue
			}
			lastHeard = text
			pending, havePending = text, true
			timer.Reset(a.debounce)
			if a.metrics != nil {
				a.metrics.Transcripts.Add(ctx, 1)
			}

		case <-timer.C():
			if !havePending {
				continue
			}
			utterance := pending
			pending, havePending = "", false
			seq++
			go a.infer(ctx, seq, utterance, results)

		case r := <-results:
			if r.seq != seq {
				// A newer utterance settled (or the session was stopped)
				// while this inference was in flight.
				a.log.Debug("assist: discarding stale prediction", "utterance", r.text)
				continue
			}
			if r.err != nil {
				a.log.Warn("assist: inference failed", "utterance", r.text, "err", r.err)
				continue
			}
			a.setPrediction(r.pred)
			res := a.commander.Dispatch(ctx, r.pred, a.source)
			a.publish(Update{Utterance: r.text, Prediction: r.pred, Result: res})
		}
	}
}

// infer runs one inference call off the actor goroutine and reports back on
// the results channel.
func (a *Assistant) infer(ctx context.Context, seq uint64, text string, results chan<- inferResult) {
	pred, err := a.predictor.Predict(ctx, text)
	select {
	case results <- inferResult{seq: seq, text: text, pred: pred, err: err}:
	case <-ctx.Done():
	}
}

// publish sends an update without blocking the actor.
func (a *Assistant) publish(u Update) {
	select {
	case a.updates <- u:
	default:
		a.log.Debug("assist: updates channel full, dropping outcome")
	}
}

func (a *Assistant) setSnapshot(listening bool, pred *prediction.Prediction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listening = listening
	a.pred = pred
}

func (a *Assistant) setListening(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listening = on
}

func (a *Assistant) setPrediction(p *prediction.Prediction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pred = p
}
