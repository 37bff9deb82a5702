// Package scope defines the candidate-set restriction a strategy scores within.
package scope

import "github.com/govscan/tendersearch/internal/domain/search/terms"

// Scope is a pre-filter join: it changes what is scored, not what is shown.
// An empty Scope (no conditions, no categories) scores the whole corpus,
// subject to the expired toggle.
type Scope struct {
	// Conditions are conjunctive structured filters (the filter approach).
	Conditions []terms.Condition
	// CategoryIDs restricts candidates to records assigned one of these
	// categories (the correspondence approach).
	CategoryIDs []string
	// IncludeExpired keeps notices past their validity window eligible.
	IncludeExpired bool
}
