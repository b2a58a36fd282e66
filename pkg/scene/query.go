package scene

import "strings"

// Field selects which node attribute a [Query] matches against.
type Field int

const (
	FieldCategoryName Field = iota
	FieldFamilyName
)

// MatchMode selects how a [Query] compares its value against the field.
type MatchMode int

const (
	// MatchExact requires the field to equal the query value exactly.
	MatchExact MatchMode = iota

	// MatchExactFold requires case-insensitive equality.
	MatchExactFold

	// MatchContains requires the field to contain the query value.
	MatchContains

	// MatchContainsFold requires the field to contain the query value
	// case-insensitively. This is the mode entity resolution uses: "wall"
	// must match "Walls — Interior".
	MatchContainsFold
)

// Query describes a single-field node filter: match Field against Value
// using Mode. It replaces ad hoc reflection-built predicates with an
// explicit description the store's own query engine executes.
type Query struct {
	Field Field
	Value string
	Mode  MatchMode
}

// Matches reports whether n satisfies the query. Nodes missing the queried
// attribute (empty field) never match.
func (q Query) Matches(n Node) bool {
	var field string
	switch q.Field {
	case FieldCategoryName:
		field = n.CategoryName
	case FieldFamilyName:
		field = n.FamilyName
	}
	if field == "" {
		return false
	}

	switch q.Mode {
	case MatchExact:
		return field == q.Value
	case MatchExactFold:
		return strings.EqualFold(field, q.Value)
	case MatchContains:
		return strings.Contains(field, q.Value)
	case MatchContainsFold:
		return strings.Contains(strings.ToLower(field), strings.ToLower(q.Value))
	}
	return false
}
