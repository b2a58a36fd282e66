package scene

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// Match is one ranked result from a [NameIndex] search.
type Match struct {
	// Name is the indexed name that matched.
	Name string

	// Score is the Jaro-Winkler similarity between the query and Name,
	// in [0, 1], computed case-insensitively.
	Score float64

	// IDs are the node identifiers attached to Name, ascending.
	IDs []int
}

// NameIndex is a fuzzy free-text search structure over node names. Each
// distinct name carries the set of node IDs grouped under it. Search ranks
// names by Jaro-Winkler similarity, breaking ties with Levenshtein edit
// distance, so the nearest name comes first.
//
// NameIndex is not safe for concurrent mutation; build it once, then share
// it for read-only searches.
type NameIndex struct {
	names map[string][]int
}

// NewNameIndex returns an empty index.
func NewNameIndex() *NameIndex {
	return &NameIndex{names: make(map[string][]int)}
}

// BuildNameIndex indexes the distinct category and family names of nodes,
// attaching each node's ID to every name it carries.
func BuildNameIndex(nodes []Node) *NameIndex {
	x := NewNameIndex()
	for _, n := range nodes {
		if n.CategoryName != "" {
			x.Insert(n.CategoryName, n.ID)
		}
		if n.FamilyName != "" {
			x.Insert(n.FamilyName, n.ID)
		}
	}
	return x
}

// Insert attaches ids to name, creating the entry if needed.
func (x *NameIndex) Insert(name string, ids ...int) {
	x.names[name] = append(x.names[name], ids...)
}

// Search returns all indexed names ranked by similarity to term, best
// first. An empty term or empty index yields no matches.
func (x *NameIndex) Search(term string) []Match {
	term = strings.TrimSpace(term)
	if term == "" || len(x.names) == 0 {
		return nil
	}
	termLower := strings.ToLower(term)

	matches := make([]Match, 0, len(x.names))
	for name, ids := range x.names {
		sorted := make([]int, len(ids))
		copy(sorted, ids)
		sort.Ints(sorted)

		matches = append(matches, Match{
			Name:  name,
			Score: matchr.JaroWinkler(termLower, strings.ToLower(name), false),
			IDs:   sorted,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		di := matchr.Levenshtein(termLower, strings.ToLower(matches[i].Name))
		dj := matchr.Levenshtein(termLower, strings.ToLower(matches[j].Name))
		if di != dj {
			return di < dj
		}
		// Final tie-break on name for deterministic ordering.
		return matches[i].Name < matches[j].Name
	})

	return matches
}
