// Package resolve maps a prediction's labeled entities to concrete node
// identifiers in the scene's object database.
//
// Only entities labeled CATEGORY_NAME or FAMILY_NAME participate; the
// general NER labels are informational and contribute no identifiers. Each
// participating value is matched against the distinct category and family
// names of the node collection by case-insensitive containment, so "wall"
// matches "Walls — Interior". When containment finds nothing, resolution
// falls back to a fuzzy nearest-name search, which absorbs transcription
// noise like "walls" heard as "wals".
//
// Resolution never fails: an unreadable source, an empty collection, or a
// value with no matches all degrade to an empty result set. A per-call read
// of the node collection is taken once, so a resolution in progress never
// observes concurrent mutation.
package resolve

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/voxsight/voxsight/internal/observe"
	"github.com/voxsight/voxsight/pkg/prediction"
	"github.com/voxsight/voxsight/pkg/scene"
)

// DefaultMinFuzzyScore is the similarity floor for fuzzy fallback matches.
// Below it, a near-miss is treated as "not a scene name at all" rather than
// matched to whatever name happens to be nearest.
const DefaultMinFuzzyScore = 0.8

// Option configures a [Resolver].
type Option func(*Resolver)

// WithMinFuzzyScore sets the minimum similarity score a fuzzy fallback
// match must reach to be accepted. Values outside (0, 1] keep
// [DefaultMinFuzzyScore].
func WithMinFuzzyScore(score float64) Option {
	return func(r *Resolver) {
		if score > 0 && score <= 1 {
			r.minFuzzyScore = score
		}
	}
}

// WithMetrics attaches a metrics instance for resolution latency recording.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// Resolver resolves predictions to node identifier sets. It is read-only
// after construction and safe for concurrent use.
type Resolver struct {
	minFuzzyScore float64
	metrics       *observe.Metrics
}

// New returns a [Resolver] configured with the supplied options.
func New(opts ...Option) *Resolver {
	r := &Resolver{minFuzzyScore: DefaultMinFuzzyScore}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve maps pred's resolvable entities to node identifiers from source.
// The result is deduplicated and ascending-sorted; it is empty (never nil
// error semantics — there are none) when nothing matches or the source
// cannot be read.
func (r *Resolver) Resolve(ctx context.Context, pred *prediction.Prediction, source scene.NodeSource) []int {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.ResolveDuration.Record(ctx, time.Since(start).Seconds())
		}
	}()

	nodes, err := source.Nodes(ctx)
	if err != nil {
		slog.Warn("resolve: node collection read failed", "err", err)
		return []int{}
	}
	if len(nodes) == 0 {
		return []int{}
	}

	categories, families := groupByName(nodes)

	set := make(map[int]struct{})
	resolvable := 0
	for _, e := range pred.Entities {
		switch e.Label {
		case prediction.LabelCategoryName:
			unionContains(set, categories, e.Value)
			resolvable++
		case prediction.LabelFamilyName:
			unionContains(set, families, e.Value)
			resolvable++
		}
	}
	if len(set) == 0 && resolvable > 0 {
		// Containment found nothing the model still labeled as a name;
		// assume a near-miss transcription and take the nearest names.
		ids := r.ResolveFuzzy(pred, scene.BuildNameIndex(nodes))
		if len(ids) > 0 {
			slog.Debug("resolve: fuzzy fallback matched", "targets", len(ids))
		}
		return ids
	}

	return sortedIDs(set)
}

// ResolveFuzzy resolves pred's entity values against a pre-indexed fuzzy
// search structure, taking only the top-ranked match per value (subject to
// the minimum score). [Resolver.Resolve] uses this as its fallback; callers
// holding a long-lived [scene.NameIndex] can invoke it directly.
func (r *Resolver) ResolveFuzzy(pred *prediction.Prediction, index *scene.NameIndex) []int {
	set := make(map[int]struct{})
	for _, value := range pred.ResolvableValues() {
		matches := index.Search(value)
		if len(matches) == 0 {
			continue
		}
		best := matches[0]
		if best.Score < r.minFuzzyScore {
			continue
		}
		for _, id := range best.IDs {
			set[id] = struct{}{}
		}
	}
	return sortedIDs(set)
}

// nameGroup is one distinct attribute value and the IDs of every node
// carrying it.
type nameGroup struct {
	name string
	ids  []int
}

// groupByName builds the category-name and family-name lookup tables:
// node identifiers grouped under each distinct name (case-preserving, exact
// string grouping), sorted lexicographically by name for determinism.
func groupByName(nodes []scene.Node) (categories, families []nameGroup) {
	catIDs := make(map[string][]int)
	famIDs := make(map[string][]int)
	for _, n := range nodes {
		if n.CategoryName != "" {
			catIDs[n.CategoryName] = append(catIDs[n.CategoryName], n.ID)
		}
		if n.FamilyName != "" {
			famIDs[n.FamilyName] = append(famIDs[n.FamilyName], n.ID)
		}
	}
	return sortedGroups(catIDs), sortedGroups(famIDs)
}

func sortedGroups(byName map[string][]int) []nameGroup {
	groups := make([]nameGroup, 0, len(byName))
	for name, ids := range byName {
		groups = append(groups, nameGroup{name: name, ids: ids})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].name < groups[j].name })
	return groups
}

// unionContains adds to set the IDs of every group whose name contains
// value case-insensitively.
func unionContains(set map[int]struct{}, groups []nameGroup, value string) {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle == "" {
		return
	}
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.name), needle) {
			for _, id := range g.ids {
				set[id] = struct{}{}
			}
		}
	}
}

func sortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
