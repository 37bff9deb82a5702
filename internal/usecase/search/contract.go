package search

import (
	"context"

	"github.com/govscan/tendersearch/internal/domain/search/category"
	"github.com/govscan/tendersearch/internal/domain/search/relevance"
	"github.com/govscan/tendersearch/internal/domain/search/result"
	"github.com/govscan/tendersearch/internal/domain/search/scope"
	"github.com/govscan/tendersearch/internal/domain/search/terms"
)

// Repository executes scoped searches against the notice index. Both
// operations return the candidates plus a count of entries skipped for
// integrity reasons.
type Repository interface {
	Semantic(ctx context.Context, vector []float32, sc scope.Scope, topK int) ([]result.Result, int, error)
	Keyword(ctx context.Context, positive, negative string, sc scope.Scope, topK int) ([]result.Result, int, error)
}

// Preprocessor splits raw query text. It never fails; degradations are
// reported as diagnostic notes.
type Preprocessor interface {
	Preprocess(ctx context.Context, raw string) (terms.Split, []string)
}

// Vectorizer derives query vectors from a term split.
type Vectorizer interface {
	// Full is the similarity vector, negation-adjusted when requested.
	Full(ctx context.Context, split terms.Split, negation bool) ([]float32, error)
	// Positive is the routing vector, never negation-adjusted.
	Positive(ctx context.Context, split terms.Split) ([]float32, error)
}

// CategoryRouter ranks taxonomy categories against a query vector.
type CategoryRouter interface {
	Top(ctx context.Context, vec []float32, n int) ([]category.Scored, error)
}

// RelevanceFilter runs the post-hoc judgment pass over candidates.
type RelevanceFilter interface {
	Filter(ctx context.Context, queryText string, level relevance.Level, candidates []result.Result) ([]result.Result, []string, error)
}
