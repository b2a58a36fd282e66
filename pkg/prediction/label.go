package prediction

// Label is the closed vocabulary of entity span labels. It covers the
// general NER categories emitted by the model alongside the domain-specific
// BIM labels that drive entity resolution.
//
// Unlike actions, labels decode strictly: an unrecognised label fails the
// whole decode with [ErrUnknownLabel], because silently dropping an entity
// would corrupt downstream resolution without detection.
type Label int

const (
	// General NER labels — informational only, never resolved.
	LabelPerson Label = iota
	LabelOrg
	LabelLocation
	LabelDate
	LabelTime
	LabelMoney
	LabelPercent
	LabelQuantity
	LabelOrdinal
	LabelCardinal

	// Domain labels. CategoryName and FamilyName participate in entity
	// resolution; the rest address parts of the scene model hierarchy.
	LabelCategoryName
	LabelFamilyName
	LabelType
	LabelInstance
	LabelLevel
	LabelView

	numLabels
)

var labelNames = [numLabels]string{
	LabelPerson:       "PERSON",
	LabelOrg:          "ORG",
	LabelLocation:     "LOC",
	LabelDate:         "DATE",
	LabelTime:         "TIME",
	LabelMoney:        "MONEY",
	LabelPercent:      "PERCENT",
	LabelQuantity:     "QUANTITY",
	LabelOrdinal:      "ORDINAL",
	LabelCardinal:     "CARDINAL",
	LabelCategoryName: "CATEGORY_NAME",
	LabelFamilyName:   "FAMILY_NAME",
	LabelType:         "TYPE",
	LabelInstance:     "INSTANCE",
	LabelLevel:        "LEVEL",
	LabelView:         "VIEW",
}

// String returns the label's wire name.
func (l Label) String() string {
	if l < 0 || l >= numLabels {
		return "UNKNOWN"
	}
	return labelNames[l]
}

// Resolvable reports whether entities with this label participate in entity
// resolution against the object database.
func (l Label) Resolvable() bool {
	return l == LabelCategoryName || l == LabelFamilyName
}

// parseLabel resolves a wire name to a [Label].
func parseLabel(name string) (Label, bool) {
	for l, n := range labelNames {
		if n == name {
			return Label(l), true
		}
	}
	return 0, false
}
