// Package embedding derives query vectors, including the negation-aware
// combination of wanted and excluded text.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/govscan/tendersearch/internal/domain"
	"github.com/govscan/tendersearch/internal/domain/search/terms"
)

// Service turns a term split into the two query vectors the pipeline needs:
// the full vector for similarity ranking and the positive-only vector for
// category routing. Negative terms must never suppress the correct category
// of the wanted item, so routing always uses the positive-only vector.
type Service struct {
	embedder domain.Embedder
	weight   float64
}

// New creates an embedding service. weight scales the subtracted excluded-text
// vector; 0 degenerates to a plain positive embedding.
func New(embedder domain.Embedder, weight float64) *Service {
	return &Service{embedder: embedder, weight: weight}
}

// Full computes the main similarity vector. When negation is enabled and the
// split carries excluded terms, the excluded embedding is subtracted
// component-wise scaled by the configured weight, and the result is
// re-normalized to unit length.
func (s *Service) Full(ctx context.Context, split terms.Split, negation bool) ([]float32, error) {
	pos, err := s.embedder.Embed(ctx, split.Positive())
	if err != nil {
		return nil, fmt.Errorf("embed positive terms: %w", err)
	}

	if !negation || !split.HasNegation() || s.weight == 0 {
		return pos.Embedding, nil
	}

	neg, err := s.embedder.Embed(ctx, split.Negative())
	if err != nil {
		return nil, fmt.Errorf("embed negative terms: %w", err)
	}
	if len(neg.Embedding) != len(pos.Embedding) {
		return nil, fmt.Errorf(
			"negative vector dimensionality %d, want %d: %w",
			len(neg.Embedding), len(pos.Embedding), domain.ErrSchemaViolation,
		)
	}

	return subtractNormalized(pos.Embedding, neg.Embedding, s.weight), nil
}

// Positive computes the routing vector. It never subtracts excluded terms.
func (s *Service) Positive(ctx context.Context, split terms.Split) ([]float32, error) {
	res, err := s.embedder.Embed(ctx, split.Positive())
	if err != nil {
		return nil, fmt.Errorf("embed positive terms: %w", err)
	}
	return res.Embedding, nil
}

// subtractNormalized computes normalize(pos - weight*neg) with float64
// accumulation. A degenerate zero-length difference falls back to pos.
func subtractNormalized(pos, neg []float32, weight float64) []float32 {
	diff := make([]float64, len(pos))
	var norm float64
	for i := range pos {
		diff[i] = float64(pos[i]) - weight*float64(neg[i])
		norm += diff[i] * diff[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return pos
	}

	out := make([]float32, len(diff))
	for i, v := range diff {
		out[i] = float32(v / norm)
	}
	return out
}
