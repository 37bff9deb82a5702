// Package router routes a query embedding to its closest taxonomy categories.
package router

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/govscan/tendersearch/internal/domain"
	"github.com/govscan/tendersearch/internal/domain/search/category"
)

// CategoryLister loads the taxonomy reference data.
type CategoryLister interface {
	List(ctx context.Context) ([]category.Category, error)
}

// Router holds an in-memory snapshot of the taxonomy and ranks categories by
// cosine similarity against a query vector. The snapshot is read-only between
// reloads, so concurrent searches share it without copying.
type Router struct {
	repo CategoryLister

	mu         sync.RWMutex
	categories []category.Category
}

// New creates a router. Call Reload before the first Top.
func New(repo CategoryLister) *Router {
	return &Router{repo: repo}
}

// Reload replaces the taxonomy snapshot from the store.
func (r *Router) Reload(ctx context.Context) error {
	categories, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}

	r.mu.Lock()
	r.categories = categories
	r.mu.Unlock()
	return nil
}

// Size returns the number of categories in the snapshot.
func (r *Router) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.categories)
}

// Top returns the n categories closest to the query vector by cosine
// similarity, descending. Ties break toward the lower category identifier so
// routing is deterministic.
func (r *Router) Top(_ context.Context, vec []float32, n int) ([]category.Scored, error) {
	r.mu.RLock()
	categories := r.categories
	r.mu.RUnlock()

	if len(categories) == 0 {
		return nil, domain.ErrTaxonomyEmpty
	}
	if n <= 0 {
		return nil, fmt.Errorf("top n must be positive, got %d", n)
	}

	scored := make([]category.Scored, 0, len(categories))
	for _, cat := range categories {
		scored = append(scored, category.Scored{
			Category: cat,
			Score:    cosine(vec, cat.Embedding()),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Category.ID() < scored[j].Category.ID()
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored, nil
}

// cosine computes cosine similarity with float64 accumulation.
// Mismatched or zero-norm vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
