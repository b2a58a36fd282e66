// Package scene defines the pipeline's view of the 3D scene: the read-only
// object database surface ([NodeSource]), a small structured query
// abstraction ([Query]), a fuzzy free-text index over node names
// ([NameIndex]), and the scene-control surface ([Controller]) that action
// dispatch targets.
//
// The object database itself is owned by the viewer; the pipeline only
// borrows read access. [MemStore] provides a thread-safe in-memory
// implementation suitable for headless operation and testing.
package scene

import "context"

// Node is one object in the scene's hierarchical object database.
type Node struct {
	// ID is the node's stable integer identifier (its index in the object
	// database).
	ID int

	// CategoryName is the node's BIM category (e.g. "Walls"). Empty when
	// the node carries no category attribute.
	CategoryName string

	// FamilyName is the node's BIM family (e.g. "Basic Wall"). Empty when
	// the node carries no family attribute.
	FamilyName string
}

// NodeSource provides a point-in-time read of the full node collection,
// ordered by stable index. A read in progress must not observe concurrent
// mutation of the collection.
//
// Implementations must be safe for concurrent use.
type NodeSource interface {
	Nodes(ctx context.Context) ([]Node, error)
}

// Direction is a camera-motion direction for zoom, look, and pan effects.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
	DirectionLeft
	DirectionRight
	DirectionUp
	DirectionDown
)

// String returns the lower-case direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	}
	return "unknown"
}

// Controller is the scene-control surface the dispatcher issues effects
// against. Calls are fire-and-forget from the pipeline's perspective: the
// implementation owns the success or failure of the visual effect.
//
// Implementations must be safe for concurrent use.
type Controller interface {
	// Hide removes the identified objects from view.
	Hide(ctx context.Context, ids []int) error

	// Isolate hides everything except the identified objects.
	Isolate(ctx context.Context, ids []int) error

	// Zoom moves the camera along its view axis. dir is DirectionIn or
	// DirectionOut.
	Zoom(ctx context.Context, dir Direction) error

	// Look rotates the camera in place.
	Look(ctx context.Context, dir Direction) error

	// Pan translates the camera parallel to the view plane.
	Pan(ctx context.Context, dir Direction) error
}
