// Package mock provides a recording [scene.Controller] for tests and
// headless runs.
package mock

import (
	"context"
	"sync"

	"github.com/voxsight/voxsight/pkg/scene"
)

// Compile-time assertion that Controller satisfies scene.Controller.
var _ scene.Controller = (*Controller)(nil)

// Call records one effect invocation on the mock controller.
type Call struct {
	// Op is the effect name: "hide", "isolate", "zoom", "look", or "pan".
	Op string

	// IDs are the target identifiers for hide/isolate calls.
	IDs []int

	// Dir is the direction for zoom/look/pan calls.
	Dir scene.Direction
}

// Controller is a [scene.Controller] that records every call it receives.
// All methods are safe for concurrent use. The zero value is ready to use.
type Controller struct {
	mu    sync.Mutex
	calls []Call

	// Err, when non-nil, is returned by every effect call.
	Err error
}

// Calls returns a copy of all recorded calls in invocation order.
func (c *Controller) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *Controller) record(call Call) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	return c.Err
}

// Hide implements [scene.Controller].
func (c *Controller) Hide(_ context.Context, ids []int) error {
	return c.record(Call{Op: "hide", IDs: append([]int(nil), ids...)})
}

// Isolate implements [scene.Controller].
func (c *Controller) Isolate(_ context.Context, ids []int) error {
	return c.record(Call{Op: "isolate", IDs: append([]int(nil), ids...)})
}

// Zoom implements [scene.Controller].
func (c *Controller) Zoom(_ context.Context, dir scene.Direction) error {
	return c.record(Call{Op: "zoom", Dir: dir})
}

// Look implements [scene.Controller].
func (c *Controller) Look(_ context.Context, dir scene.Direction) error {
	return c.record(Call{Op: "look", Dir: dir})
}

// Pan implements [scene.Controller].
func (c *Controller) Pan(_ context.Context, dir scene.Direction) error {
	return c.record(Call{Op: "pan", Dir: dir})
}
