// Package relevance filters search candidates through a remote judgment
// service, keeping only hits the judge accepts with enough confidence.
package relevance

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/govscan/tendersearch/internal/domain"
	"github.com/govscan/tendersearch/internal/domain/search/relevance"
	"github.com/govscan/tendersearch/internal/domain/search/result"
	"github.com/govscan/tendersearch/internal/logger"
)

// Judge renders a verdict on one candidate against the query text.
// strict selects the restrictive judging prompt.
type Judge interface {
	Judge(ctx context.Context, query, candidate string, strict bool) (domain.Judgment, error)
}

// Filter runs the judgment pass over a candidate set.
type Filter struct {
	judge Judge
	pool  *ants.Pool

	flexibleThreshold    float64
	restrictiveThreshold float64
}

// New creates a filter backed by a worker pool of the given size.
func New(judge Judge, poolSize int, flexibleThreshold, restrictiveThreshold float64) (*Filter, error) {
	if poolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", poolSize)
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("create judgment pool: %w", err)
	}

	return &Filter{
		judge:                judge,
		pool:                 pool,
		flexibleThreshold:    flexibleThreshold,
		restrictiveThreshold: restrictiveThreshold,
	}, nil
}

// Close releases the worker pool.
func (f *Filter) Close() {
	f.pool.Release()
}

// verdict is the outcome of judging a single candidate.
type verdict struct {
	judgment domain.Judgment
	err      error
}

// Filter judges every candidate concurrently and drops the ones the judge
// rejects or scores below the level's threshold. Candidate order is preserved.
//
// A candidate whose judgment fails is kept without a confidence, reported in
// the returned notes. When every judgment fails the pass degrades to a no-op
// and the full candidate set comes back untouched.
func (f *Filter) Filter(
	ctx context.Context,
	queryText string,
	level relevance.Level,
	candidates []result.Result,
) ([]result.Result, []string, error) {
	if level == relevance.None || len(candidates) == 0 {
		return candidates, nil, nil
	}

	log := logger.FromContext(ctx)
	strict := level == relevance.Restrictive
	threshold := f.flexibleThreshold
	if strict {
		threshold = f.restrictiveThreshold
	}

	verdicts := make([]verdict, len(candidates))
	var wg sync.WaitGroup
	for i := range candidates {
		i := i
		wg.Add(1)
		if err := f.pool.Submit(func() {
			defer wg.Done()
			judgment, err := f.judge.Judge(ctx, queryText, candidates[i].Record().Description(), strict)
			verdicts[i] = verdict{judgment: judgment, err: err}
		}); err != nil {
			wg.Done()
			verdicts[i] = verdict{err: fmt.Errorf("submit judgment: %w", err)}
		}
	}
	wg.Wait()

	failed := 0
	for i := range verdicts {
		if verdicts[i].err != nil {
			failed++
		}
	}
	if failed == len(candidates) {
		log.Warn("every relevance judgment failed, skipping filter",
			zap.Int("candidates", len(candidates)))
		return candidates, []string{"relevance filter unavailable, returning unfiltered results"}, nil
	}

	var notes []string
	kept := make([]result.Result, 0, len(candidates))
	for i, v := range verdicts {
		if v.err != nil {
			log.Warn("relevance judgment failed, keeping candidate",
				zap.String("id", candidates[i].ID()),
				zap.Error(v.err))
			notes = append(notes, fmt.Sprintf("judgment failed for %s, kept without confidence", candidates[i].ID()))
			kept = append(kept, candidates[i])
			continue
		}
		if !v.judgment.Accept || v.judgment.Confidence < threshold {
			continue
		}
		kept = append(kept, candidates[i].WithConfidence(v.judgment.Confidence))
	}
	return kept, notes, nil
}
