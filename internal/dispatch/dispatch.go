// Package dispatch turns a decoded prediction into at most one scene
// effect call.
//
// The dispatcher is a small state machine (Idle → AwaitingResolution →
// Dispatching → Idle) with a fixed confidence gate: predictions whose best
// action scores below the threshold are dropped as a no-op, never an error.
// Target-based actions (hide, isolate, quantify) resolve entities first and
// drop silently when hide/isolate resolve to an empty set; camera-motion
// actions dispatch immediately with no resolution.
//
// Re-entrant predictions supersede earlier ones: effects already issued are
// not rolled back, but a superseded dispatch no longer influences the
// machine's future state.
package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/voxsight/voxsight/internal/observe"
	"github.com/voxsight/voxsight/internal/resolve"
	"github.com/voxsight/voxsight/pkg/prediction"
	"github.com/voxsight/voxsight/pkg/scene"
)

// DefaultConfidenceThreshold is the minimum best-action confidence required
// before any effect is issued.
const DefaultConfidenceThreshold = 0.85

// State is the dispatcher's current position in its lifecycle.
type State int

const (
	// StateIdle means no prediction is being processed.
	StateIdle State = iota

	// StateAwaitingResolution means a target-based action is waiting for
	// entity resolution to complete.
	StateAwaitingResolution

	// StateDispatching means an effect call is being issued.
	StateDispatching
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResolution:
		return "awaiting-resolution"
	case StateDispatching:
		return "dispatching"
	default:
		return "unknown"
	}
}

// Result describes the outcome of one [Dispatcher.Dispatch] call.
type Result struct {
	// Dispatched reports whether an effect call was issued.
	Dispatched bool

	// Action is the best-prediction action, valid when Dispatched.
	Action prediction.Action

	// Targets are the resolved node identifiers, for target-based actions.
	Targets []int
}

// Option configures a [Dispatcher].
type Option func(*Dispatcher)

// WithThreshold overrides the confidence gate.
// Default: [DefaultConfidenceThreshold].
func WithThreshold(threshold float64) Option {
	return func(d *Dispatcher) {
		d.threshold = threshold
	}
}

// WithMetrics attaches a metrics instance for dispatch accounting.
func WithMetrics(m *observe.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// Dispatcher gates and dispatches predictions against a [scene.Controller].
// All methods are safe for concurrent use.
type Dispatcher struct {
	resolver   *resolve.Resolver
	controller scene.Controller
	threshold  float64
	metrics    *observe.Metrics

	mu         sync.Mutex
	state      State
	generation uint64
}

// New returns a [Dispatcher] issuing effects on controller, resolving
// targets through resolver.
func New(resolver *resolve.Resolver, controller scene.Controller, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver:   resolver,
		controller: controller,
		threshold:  DefaultConfidenceThreshold,
		state:      StateIdle,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// State returns the dispatcher's current state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Dispatch processes one prediction end to end: confidence gate, entity
// resolution for target-based actions, then exactly one effect call. It
// returns a [Result] describing what happened; it never returns an error —
// a refused dispatch is a no-op by design, and effect-call failures are
// owned by the controller.
//
// A Dispatch that starts while an earlier one is still running supersedes
// it: the earlier call's effect is not cancelled, but only the most recent
// call drives the machine back to Idle.
func (d *Dispatcher) Dispatch(ctx context.Context, pred *prediction.Prediction, source scene.NodeSource) Result {
	action, confidence, ok := pred.Best()
	if !ok || confidence < d.threshold {
		label := action.String()
		if !ok {
			// No best action exists; don't charge the refusal to the
			// zero-value action.
			label = "none"
		}
		d.recordDispatch(ctx, label, "below_threshold")
		slog.Debug("dispatch: below confidence threshold",
			"confidence", confidence,
			"threshold", d.threshold,
		)
		return Result{}
	}

	gen := d.begin(action)

	var targets []int
	if action.NeedsTargets() {
		targets = d.resolver.Resolve(ctx, pred, source)
		if len(targets) == 0 && action != prediction.ActionQuantify {
			d.finish(gen)
			d.recordDispatch(ctx, action.String(), "no_targets")
			slog.Debug("dispatch: no targets resolved", "action", action.String())
			return Result{}
		}
	}

	d.dispatching(gen)
	d.invoke(ctx, action, targets)
	d.finish(gen)
	d.recordDispatch(ctx, action.String(), "dispatched")

	return Result{Dispatched: true, Action: action, Targets: targets}
}

// begin claims a new generation and moves the machine out of Idle.
func (d *Dispatcher) begin(action prediction.Action) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	if action.NeedsTargets() {
		d.state = StateAwaitingResolution
	} else {
		d.state = StateDispatching
	}
	return d.generation
}

// dispatching moves the machine to Dispatching if gen is still current.
func (d *Dispatcher) dispatching(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen == d.generation {
		d.state = StateDispatching
	}
}

// finish returns the machine to Idle, unless a newer generation has taken
// over (last-prediction-wins for future state).
func (d *Dispatcher) finish(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen == d.generation {
		d.state = StateIdle
	}
}

// invoke issues exactly one effect call. Controller errors are logged and
// swallowed: dispatch is a fire-and-forget leaf.
func (d *Dispatcher) invoke(ctx context.Context, action prediction.Action, targets []int) {
	var err error
	switch action {
	case prediction.ActionHide:
		err = d.controller.Hide(ctx, targets)
	case prediction.ActionIsolate:
		err = d.controller.Isolate(ctx, targets)
	case prediction.ActionQuantify:
		// No scene effect; the count is the result.
		slog.Info("dispatch: quantify", "count", len(targets))
	case prediction.ActionZoomIn:
		err = d.controller.Zoom(ctx, scene.DirectionIn)
	case prediction.ActionZoomOut:
		err = d.controller.Zoom(ctx, scene.DirectionOut)
	case prediction.ActionLookLeft:
		err = d.controller.Look(ctx, scene.DirectionLeft)
	case prediction.ActionLookRight:
		err = d.controller.Look(ctx, scene.DirectionRight)
	case prediction.ActionLookUp:
		err = d.controller.Look(ctx, scene.DirectionUp)
	case prediction.ActionLookDown:
		err = d.controller.Look(ctx, scene.DirectionDown)
	case prediction.ActionPanLeft:
		err = d.controller.Pan(ctx, scene.DirectionLeft)
	case prediction.ActionPanRight:
		err = d.controller.Pan(ctx, scene.DirectionRight)
	case prediction.ActionPanUp:
		err = d.controller.Pan(ctx, scene.DirectionUp)
	case prediction.ActionPanDown:
		err = d.controller.Pan(ctx, scene.DirectionDown)
	}
	if err != nil {
		slog.Warn("dispatch: effect call failed",
			"action", action.String(),
			"targets", len(targets),
			"err", err,
		)
	}
}

func (d *Dispatcher) recordDispatch(ctx context.Context, action, status string) {
	if d.metrics != nil {
		d.metrics.RecordDispatch(ctx, action, status)
	}
}
