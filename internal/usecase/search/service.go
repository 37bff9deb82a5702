// Package search orchestrates the full query pipeline: preprocessing,
// embedding, category routing, strategy execution, relevance filtering
// and ranking.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/govscan/tendersearch/internal/domain"
	"github.com/govscan/tendersearch/internal/domain/search/approach"
	"github.com/govscan/tendersearch/internal/domain/search/category"
	"github.com/govscan/tendersearch/internal/domain/search/query"
	"github.com/govscan/tendersearch/internal/domain/search/result"
	"github.com/govscan/tendersearch/internal/domain/search/scope"
	"github.com/govscan/tendersearch/internal/domain/search/strategy"
	"github.com/govscan/tendersearch/internal/domain/search/terms"
	"github.com/govscan/tendersearch/internal/logger"
	"github.com/govscan/tendersearch/internal/metrics"
	"github.com/govscan/tendersearch/internal/usecase/rank"
)

const retryPause = 150 * time.Millisecond

// Config holds the orchestrator tuning knobs.
type Config struct {
	SemanticWeight float64
	KeywordWeight  float64
	// CandidateFactor scales the requested limit into the candidate pool
	// size fetched from the store, so filtering has room to drop hits.
	CandidateFactor int
}

// Service runs searches end to end.
type Service struct {
	repo         Repository
	preprocessor Preprocessor
	vectorizer   Vectorizer
	router       CategoryRouter
	filter       RelevanceFilter
	cfg          Config
}

// New creates the search orchestrator.
func New(
	repo Repository,
	preprocessor Preprocessor,
	vectorizer Vectorizer,
	router CategoryRouter,
	filter RelevanceFilter,
	cfg Config,
) *Service {
	if cfg.CandidateFactor <= 0 {
		cfg.CandidateFactor = 3
	}
	return &Service{
		repo:         repo,
		preprocessor: preprocessor,
		vectorizer:   vectorizer,
		router:       router,
		filter:       filter,
		cfg:          cfg,
	}
}

// Search executes one query. A returned error means no results could be
// produced; everything recoverable degrades instead, with the degradation
// noted in the response and the status set to partial.
func (s *Service) Search(ctx context.Context, q *query.Query) (result.Response, error) {
	log := logger.FromContext(ctx)
	track := &tracker{}

	resp, err := s.search(ctx, q, track)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(
			string(q.Strategy()), string(q.Approach()), string(result.Failed),
		).Inc()
		return result.Response{}, err
	}

	metrics.SearchesTotal.WithLabelValues(
		string(q.Strategy()), string(q.Approach()), string(resp.Status()),
	).Inc()
	log.Info("search completed",
		zap.String("strategy", string(q.Strategy())),
		zap.String("approach", string(q.Approach())),
		zap.String("status", string(resp.Status())),
		zap.Int("results", len(resp.Results())),
	)
	return resp, nil
}

func (s *Service) search(ctx context.Context, q *query.Query, track *tracker) (result.Response, error) {
	stop := track.stage("preprocess")
	split, notes := s.preprocessor.Preprocess(ctx, q.Text())
	track.degrade(notes...)
	stop()

	stop = track.stage("embed")
	fullVec, routingVec, err := s.embed(ctx, q, split, track)
	stop()
	if err != nil {
		return result.Response{}, err
	}

	stop = track.stage("route")
	categories := s.route(ctx, q, routingVec, track)
	stop()

	sc := scope.Scope{IncludeExpired: q.IncludeExpired()}
	if track.routed && q.Approach() == approach.Correspondence {
		sc.CategoryIDs = categoryIDs(categories)
	}
	if q.Approach() == approach.Filter {
		sc.Conditions = split.Conditions()
	}

	stop = track.stage("execute")
	candidates, err := s.execute(ctx, q, split, fullVec, sc, track)
	stop()
	if err != nil {
		return result.Response{}, err
	}

	stop = track.stage("relevance")
	filtered, level := candidates, q.Relevance()
	if s.filter != nil {
		var filterNotes []string
		filtered, filterNotes, err = s.filter.Filter(ctx, split.Positive(), level, candidates)
		if err != nil {
			return result.Response{}, fmt.Errorf("relevance filter: %w", err)
		}
		track.degrade(filterNotes...)
	}
	stop()

	stop = track.stage("rank")
	ranked := rank.Rank(filtered, q.Order(), q.Limit())
	stop()

	return result.NewResponse(ranked, split, categories, track.status(), track.degradations, track.timings), nil
}

// embed computes the vectors the query actually needs. The full similarity
// vector is required for semantic and hybrid strategies and its failure is
// fatal. The routing vector is best-effort: losing it degrades the approach
// to direct.
func (s *Service) embed(
	ctx context.Context, q *query.Query, split terms.Split, track *tracker,
) (fullVec, routingVec []float32, err error) {
	if q.Strategy().NeedsEmbedding() {
		fullVec, err = s.vectorizer.Full(ctx, split, q.Negation())
		if err != nil {
			return nil, nil, fmt.Errorf("embed query: %w", err)
		}
	}

	if !q.Approach().NeedsRouting() {
		return fullVec, nil, nil
	}

	routingVec, rerr := s.vectorizer.Positive(ctx, split)
	if rerr != nil {
		logger.FromContext(ctx).Warn("routing embedding failed, skipping category routing", zap.Error(rerr))
		track.degrade("category routing skipped: embedding unavailable")
		return fullVec, nil, nil
	}
	return fullVec, routingVec, nil
}

// route ranks taxonomy categories when the approach asks for routing. Routed
// categories restrict candidates only under the correspondence approach; the
// filter approach reports them without restricting.
func (s *Service) route(
	ctx context.Context, q *query.Query, routingVec []float32, track *tracker,
) []category.Scored {
	if !q.Approach().NeedsRouting() || routingVec == nil {
		return nil
	}

	categories, err := s.router.Top(ctx, routingVec, q.CategoryTopN())
	if err != nil {
		logger.FromContext(ctx).Warn("category routing failed", zap.Error(err))
		track.degrade("category routing failed, searching without category restriction")
		return nil
	}
	track.routed = true
	return categories
}

// execute runs the store queries for the chosen strategy within the scope.
// For hybrid, one failed leg degrades to the surviving leg; both legs failing
// is fatal.
func (s *Service) execute(
	ctx context.Context, q *query.Query, split terms.Split, fullVec []float32, sc scope.Scope, track *tracker,
) ([]result.Result, error) {
	topK := q.Limit() * s.cfg.CandidateFactor

	semanticLeg := func() ([]result.Result, int, error) {
		return s.retrySearch(ctx, func() ([]result.Result, int, error) {
			return s.repo.Semantic(ctx, fullVec, sc, topK)
		})
	}
	keywordLeg := func() ([]result.Result, int, error) {
		return s.retrySearch(ctx, func() ([]result.Result, int, error) {
			return s.repo.Keyword(ctx, split.Positive(), split.Negative(), sc, topK)
		})
	}

	switch q.Strategy() {
	case strategy.Semantic:
		candidates, skipped, err := semanticLeg()
		if err != nil {
			return nil, fmt.Errorf("semantic search: %w: %w", domain.ErrSearchFailed, err)
		}
		track.skip(skipped)
		return candidates, nil

	case strategy.Keyword:
		candidates, skipped, err := keywordLeg()
		if err != nil {
			return nil, fmt.Errorf("keyword search: %w: %w", domain.ErrSearchFailed, err)
		}
		track.skip(skipped)
		return candidates, nil

	default: // strategy.Hybrid
		semantic, semSkipped, semErr := semanticLeg()
		keyword, kwSkipped, kwErr := keywordLeg()
		if semErr != nil && kwErr != nil {
			return nil, fmt.Errorf("hybrid search: %w: %w", domain.ErrSearchFailed, semErr)
		}
		if semErr != nil {
			logger.FromContext(ctx).Warn("semantic leg failed", zap.Error(semErr))
			track.degrade("semantic leg failed, keyword results only")
		}
		if kwErr != nil {
			logger.FromContext(ctx).Warn("keyword leg failed", zap.Error(kwErr))
			track.degrade("keyword leg failed, semantic results only")
		}
		track.skip(semSkipped + kwSkipped)
		return fuse(semantic, keyword, s.cfg.SemanticWeight, s.cfg.KeywordWeight), nil
	}
}

// retrySearch retries a store read once after a short pause.
func (s *Service) retrySearch(
	ctx context.Context, do func() ([]result.Result, int, error),
) ([]result.Result, int, error) {
	candidates, skipped, err := do()
	if err == nil {
		return candidates, skipped, nil
	}

	select {
	case <-ctx.Done():
		return nil, 0, err
	case <-time.After(retryPause):
	}
	return do()
}

func categoryIDs(categories []category.Scored) []string {
	ids := make([]string, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.Category.ID())
	}
	return ids
}

// tracker accumulates the per-search bookkeeping: stage timings, degradation
// notes and skipped-candidate counts.
type tracker struct {
	degradations []string
	timings      []result.Timing
	skipped      int
	routed       bool
}

func (r *tracker) degrade(notes ...string) {
	r.degradations = append(r.degradations, notes...)
}

func (r *tracker) skip(n int) { r.skipped += n }

func (r *tracker) stage(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		r.timings = append(r.timings, result.Timing{Stage: name, Duration: d})
		metrics.SearchStageDuration.WithLabelValues(name).Observe(d.Seconds())
	}
}

func (r *tracker) status() result.Status {
	if len(r.degradations) > 0 || r.skipped > 0 {
		return result.Partial
	}
	return result.Success
}
