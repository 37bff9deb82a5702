// Package query defines the immutable, validated search query. A Query fully
// determines one search execution.
package query

import (
	"fmt"

	"github.com/govscan/tendersearch/internal/domain"
	"github.com/govscan/tendersearch/internal/domain/search/approach"
	"github.com/govscan/tendersearch/internal/domain/search/order"
	"github.com/govscan/tendersearch/internal/domain/search/relevance"
	"github.com/govscan/tendersearch/internal/domain/search/strategy"
)

// Query parameter limits.
const (
	// MaxTextLength is the maximum allowed raw query length.
	MaxTextLength      = 4096
	DefaultLimit       = 20
	MaxLimit           = 100
	DefaultCategoryTop = 5
	// MaxCategoryTop is bounded by the store's filter group size: each
	// routed category becomes one any-of condition in the pre-filter.
	MaxCategoryTop = 32
)

// Query is a validated, immutable search query.
type Query struct {
	text           string
	searchStrategy strategy.Strategy
	searchApproach approach.Approach
	relevanceLevel relevance.Level
	orderKey       order.Key
	limit          int
	categoryTopN   int
	negation       bool
	includeExpired bool
}

// New validates and normalizes search parameters.
// Defaults: strategy=hybrid, approach=direct, relevance=none, order=similarity,
// limit=20, categoryTopN=5, negation on, expired records excluded.
// Unknown enum values are rejected with domain.ErrInvalidQuery.
func New(
	text string,
	st strategy.Strategy,
	ap approach.Approach,
	lvl relevance.Level,
	key order.Key,
	limit, categoryTopN int,
	negation, includeExpired bool,
) (Query, error) {
	if text == "" {
		return Query{}, fmt.Errorf("%w: query text is required", domain.ErrInvalidQuery)
	}
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxTextLength)
	}
	if st == "" {
		st = strategy.Hybrid
	}
	if !st.IsValid() {
		return Query{}, fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidQuery, st)
	}
	if ap == "" {
		ap = approach.Direct
	}
	if !ap.IsValid() {
		return Query{}, fmt.Errorf("%w: unknown approach %q", domain.ErrInvalidQuery, ap)
	}
	if lvl == "" {
		lvl = relevance.None
	}
	if !lvl.IsValid() {
		return Query{}, fmt.Errorf("%w: unknown relevance level %q", domain.ErrInvalidQuery, lvl)
	}
	if key == "" {
		key = order.Similarity
	}
	if !key.IsValid() {
		return Query{}, fmt.Errorf("%w: unknown order key %q", domain.ErrInvalidQuery, key)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if categoryTopN <= 0 {
		categoryTopN = DefaultCategoryTop
	}
	if categoryTopN > MaxCategoryTop {
		categoryTopN = MaxCategoryTop
	}

	return Query{
		text:           text,
		searchStrategy: st,
		searchApproach: ap,
		relevanceLevel: lvl,
		orderKey:       key,
		limit:          limit,
		categoryTopN:   categoryTopN,
		negation:       negation,
		includeExpired: includeExpired,
	}, nil
}

// Text returns the raw query text.
func (q *Query) Text() string { return q.text }

// Strategy returns the scoring algorithm.
func (q *Query) Strategy() strategy.Strategy { return q.searchStrategy }

// Approach returns the candidate-set construction approach.
func (q *Query) Approach() approach.Approach { return q.searchApproach }

// Relevance returns the judgment pass strictness.
func (q *Query) Relevance() relevance.Level { return q.relevanceLevel }

// Order returns the result ordering key.
func (q *Query) Order() order.Key { return q.orderKey }

// Limit returns the maximum results to return.
func (q *Query) Limit() int { return q.limit }

// CategoryTopN returns the number of categories to route through.
func (q *Query) CategoryTopN() int { return q.categoryTopN }

// Negation reports whether negative terms feed the query vector arithmetic.
func (q *Query) Negation() bool { return q.negation }

// IncludeExpired reports whether expired notices are eligible candidates.
func (q *Query) IncludeExpired() bool { return q.includeExpired }
