// Package prediction decodes the inference endpoint's response payload into
// a structured [Prediction]: the utterance text, a per-action confidence
// distribution, labeled entity spans, and a derived slice sequence that
// tiles the utterance into entity and plain pieces.
//
// Decoding applies two distinct policies deliberately: unrecognised action
// keys are dropped silently (forward compatibility with newer models), while
// unrecognised entity labels fail the decode (a lost entity would silently
// corrupt resolution).
//
// All offsets are byte offsets into the UTF-8 utterance text, as produced by
// the model server.
package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Decode-time errors. Each aborts the single prediction it occurred in,
// never the surrounding session.
var (
	// ErrMalformedPayload indicates a required field (text, cats, ents) is
	// absent or of the wrong shape.
	ErrMalformedPayload = errors.New("prediction: malformed payload")

	// ErrUnknownLabel indicates an entity carried a label outside the closed
	// label vocabulary.
	ErrUnknownLabel = errors.New("prediction: unknown entity label")

	// ErrInvalidRange indicates an entity range is out of bounds, inverted,
	// or overlaps the preceding entity.
	ErrInvalidRange = errors.New("prediction: invalid entity range")
)

// LabeledEntity is a labeled, position-addressed span of the utterance.
// Value is always derived by slicing the utterance text with [Start, End) —
// it is never supplied independently, which prevents text/range drift.
type LabeledEntity struct {
	Label Label
	Start int
	End   int
	Value string
}

// SliceKind distinguishes entity slices from plain text between entities.
type SliceKind int

const (
	SlicePlain SliceKind = iota
	SliceEntity
)

// Slice is one contiguous piece of the utterance. The full slice sequence of
// a [Prediction] tiles [0, len(Text)) left to right with no gaps or
// overlaps. Entity is the index into [Prediction.Entities] for entity
// slices, and -1 for plain slices.
type Slice struct {
	Kind   SliceKind
	Start  int
	End    int
	Entity int
}

// Prediction is the decoded result of one inference call.
type Prediction struct {
	// Text is the utterance the model was queried with.
	Text string

	// Actions maps each recognised action to its independent confidence in
	// [0, 1]. Scores need not sum to 1.
	Actions map[Action]float64

	// Entities are the labeled spans in payload order.
	Entities []LabeledEntity

	// Slices tile the utterance into entity and plain pieces.
	Slices []Slice
}

// wire mirrors the JSON shape produced by the inference endpoint:
//
//	{ "text": "...", "cats": { "HIDE": 0.97, ... }, "ents": [ { "label": "...", "start": 0, "end": 5 }, ... ] }
//
// Pointer fields distinguish "absent" from "zero-valued".
type wire struct {
	Text *string            `json:"text"`
	Cats map[string]float64 `json:"cats"`
	Ents *[]wireEntity      `json:"ents"`
}

type wireEntity struct {
	Label *string `json:"label"`
	Start *int    `json:"start"`
	End   *int    `json:"end"`
}

// Decode parses a raw inference payload. It returns an error wrapping
// [ErrMalformedPayload], [ErrUnknownLabel], or [ErrInvalidRange] on bad
// input; a non-nil *Prediction otherwise.
func Decode(data []byte) (*Prediction, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if w.Text == nil {
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformedPayload, "text")
	}
	if w.Cats == nil {
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformedPayload, "cats")
	}
	if w.Ents == nil {
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformedPayload, "ents")
	}

	p := &Prediction{
		Text:     *w.Text,
		Actions:  make(map[Action]float64, len(w.Cats)),
		Entities: make([]LabeledEntity, 0, len(*w.Ents)),
		Slices:   []Slice{},
	}

	// Action keys outside the closed vocabulary are dropped silently.
	for name, score := range w.Cats {
		if a, ok := parseAction(name); ok {
			p.Actions[a] = score
		}
	}

	// Entities decode strictly, with range validation against the utterance
	// and against the preceding entity.
	prevEnd := 0
	for i, e := range *w.Ents {
		if e.Label == nil || e.Start == nil || e.End == nil {
			return nil, fmt.Errorf("%w: ents[%d] missing label/start/end", ErrMalformedPayload, i)
		}
		label, ok := parseLabel(*e.Label)
		if !ok {
			return nil, fmt.Errorf("%w: ents[%d] label %q", ErrUnknownLabel, i, *e.Label)
		}
		start, end := *e.Start, *e.End
		if start < 0 || end < start || end > len(p.Text) {
			return nil, fmt.Errorf("%w: ents[%d] [%d, %d) in text of length %d", ErrInvalidRange, i, start, end, len(p.Text))
		}
		if start < prevEnd {
			return nil, fmt.Errorf("%w: ents[%d] [%d, %d) overlaps previous entity ending at %d", ErrInvalidRange, i, start, end, prevEnd)
		}
		prevEnd = end

		p.Entities = append(p.Entities, LabeledEntity{
			Label: label,
			Start: start,
			End:   end,
			Value: p.Text[start:end],
		})
	}

	p.Slices = buildSlices(p.Text, p.Entities)
	return p, nil
}

// buildSlices derives the plain/entity tiling of [0, len(text)). Entities
// must already be validated as in-bounds and non-overlapping in order.
func buildSlices(text string, entities []LabeledEntity) []Slice {
	slices := []Slice{}
	start := 0

	for i, e := range entities {
		if start < e.Start {
			slices = append(slices, Slice{Kind: SlicePlain, Start: start, End: e.Start, Entity: -1})
		}
		slices = append(slices, Slice{Kind: SliceEntity, Start: e.Start, End: e.End, Entity: i})
		start = e.End
	}
	if start < len(text) {
		slices = append(slices, Slice{Kind: SlicePlain, Start: start, End: len(text), Entity: -1})
	}
	return slices
}

// Best returns the maximum-confidence action. Ties break in favour of the
// earlier-declared action. ok is false when the distribution is empty.
func (p *Prediction) Best() (action Action, confidence float64, ok bool) {
	for a := Action(0); a < numActions; a++ {
		score, present := p.Actions[a]
		if !present {
			continue
		}
		if !ok || score > confidence {
			action, confidence, ok = a, score, true
		}
	}
	return action, confidence, ok
}

// ResolvableValues returns the values of entities whose label participates
// in resolution, in payload order.
func (p *Prediction) ResolvableValues() []string {
	var values []string
	for _, e := range p.Entities {
		if e.Label.Resolvable() {
			values = append(values, e.Value)
		}
	}
	return values
}
