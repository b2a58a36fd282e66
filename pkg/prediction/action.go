package prediction

// Action is the closed vocabulary of scene commands the model can predict.
//
// Declaration order matters: when two actions tie on confidence,
// [Prediction.Best] prefers the earlier-declared one.
type Action int

const (
	ActionHide Action = iota
	ActionIsolate
	ActionQuantify
	ActionZoomIn
	ActionZoomOut
	ActionLookLeft
	ActionLookRight
	ActionLookUp
	ActionLookDown
	ActionPanLeft
	ActionPanRight
	ActionPanUp
	ActionPanDown

	numActions
)

// actionNames maps actions to their wire names as produced by the inference
// endpoint's category classifier.
var actionNames = [numActions]string{
	ActionHide:      "HIDE",
	ActionIsolate:   "ISOLATE",
	ActionQuantify:  "QUANTIFY",
	ActionZoomIn:    "ZOOM_IN",
	ActionZoomOut:   "ZOOM_OUT",
	ActionLookLeft:  "LOOK_LEFT",
	ActionLookRight: "LOOK_RIGHT",
	ActionLookUp:    "LOOK_UP",
	ActionLookDown:  "LOOK_DOWN",
	ActionPanLeft:   "PAN_LEFT",
	ActionPanRight:  "PAN_RIGHT",
	ActionPanUp:     "PAN_UP",
	ActionPanDown:   "PAN_DOWN",
}

// String returns the action's wire name.
func (a Action) String() string {
	if a < 0 || a >= numActions {
		return "UNKNOWN"
	}
	return actionNames[a]
}

// NeedsTargets reports whether the action operates on resolved object
// identifiers. Camera-motion actions (zoom, look, pan) act on the viewpoint
// and require no entity resolution.
func (a Action) NeedsTargets() bool {
	switch a {
	case ActionHide, ActionIsolate, ActionQuantify:
		return true
	}
	return false
}

// parseAction resolves a wire name to an [Action]. Unrecognised names return
// ok=false; decoding treats them as forward-compatible noise, not errors.
func parseAction(name string) (Action, bool) {
	for a, n := range actionNames {
		if n == name {
			return Action(a), true
		}
	}
	return 0, false
}
