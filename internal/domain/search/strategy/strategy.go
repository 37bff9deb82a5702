// Package strategy defines the scoring algorithm axis of a search.
package strategy

// Strategy is the scoring algorithm.
type Strategy string

// Strategy constants.
const (
	// Hybrid blends semantic and keyword scores.
	Hybrid   Strategy = "hybrid"
	Semantic Strategy = "semantic"
	Keyword  Strategy = "keyword"
)

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	return s == Hybrid || s == Semantic || s == Keyword
}

// NeedsEmbedding reports whether the strategy requires a query vector.
func (s Strategy) NeedsEmbedding() bool {
	return s == Hybrid || s == Semantic
}

// NeedsKeywords reports whether the strategy requires a full-text pass.
func (s Strategy) NeedsKeywords() bool {
	return s == Hybrid || s == Keyword
}
