// Package approach defines the candidate-set construction axis of a search.
package approach

// Approach selects how the candidate set is restricted before scoring.
type Approach string

// Approach constants.
const (
	// Direct scores the whole corpus (expired-record toggle aside).
	Direct Approach = "direct"
	// Correspondence restricts candidates to records whose assigned category
	// is among the query's routed top categories.
	Correspondence Approach = "correspondence"
	// Filter restricts candidates by the structured conditions parsed from the query.
	Filter Approach = "filter"
)

// IsValid checks if the approach is one of the supported values.
func (a Approach) IsValid() bool {
	return a == Direct || a == Correspondence || a == Filter
}

// NeedsRouting reports whether the approach consults the category router.
func (a Approach) NeedsRouting() bool {
	return a == Correspondence || a == Filter
}
