// Package result defines scored search hits and the final search response.
package result

import (
	"time"

	"github.com/govscan/tendersearch/internal/domain/search/category"
	"github.com/govscan/tendersearch/internal/domain/search/record"
	"github.com/govscan/tendersearch/internal/domain/search/terms"
)

// Result is a single scored search hit.
type Result struct {
	rec           record.Record
	semanticScore float64
	keywordScore  float64
	score         float64
	confidence    *float64
	rank          int
}

// New creates a scored result. score is the combined score used for ranking;
// the sub-scores keep the per-signal contributions (0 when a signal did not run).
func New(rec record.Record, semanticScore, keywordScore, score float64) Result {
	return Result{
		rec:           rec,
		semanticScore: semanticScore,
		keywordScore:  keywordScore,
		score:         score,
	}
}

// Record returns the underlying notice snapshot.
func (r *Result) Record() record.Record { return r.rec }

// ID returns the notice identifier.
func (r *Result) ID() string { return r.rec.ID() }

// SemanticScore returns the vector similarity contribution.
func (r *Result) SemanticScore() float64 { return r.semanticScore }

// KeywordScore returns the full-text contribution.
func (r *Result) KeywordScore() float64 { return r.keywordScore }

// Score returns the combined ranking score.
func (r *Result) Score() float64 { return r.score }

// Confidence returns the relevance confidence, nil when no judgment ran.
func (r *Result) Confidence() *float64 { return r.confidence }

// Rank returns the 1-based final rank (0 before ranking).
func (r *Result) Rank() int { return r.rank }

// WithScore returns a copy with the combined score replaced.
func (r Result) WithScore(score float64) Result {
	r.score = score
	return r
}

// WithConfidence returns a copy carrying a relevance confidence.
func (r Result) WithConfidence(confidence float64) Result {
	r.confidence = &confidence
	return r
}

// WithRank returns a copy with the final rank assigned.
func (r Result) WithRank(rank int) Result {
	r.rank = rank
	return r
}

// Status is the terminal outcome of one search.
type Status string

// Status constants.
const (
	// Success means every pipeline stage ran as requested.
	Success Status = "success"
	// Partial means the results are best-effort: a stage degraded or
	// individual items were skipped.
	Partial Status = "partial"
	// Failed means no results could be produced.
	Failed Status = "failed"
)

// Timing records the duration of one pipeline stage.
type Timing struct {
	Stage    string
	Duration time.Duration
}

// Response is the full outcome of one search invocation, immutable after return.
type Response struct {
	results      []Result
	split        terms.Split
	categories   []category.Scored
	status       Status
	degradations []string
	timings      []Timing
}

// NewResponse assembles a search response.
func NewResponse(
	results []Result,
	split terms.Split,
	categories []category.Scored,
	status Status,
	degradations []string,
	timings []Timing,
) Response {
	return Response{
		results:      results,
		split:        split,
		categories:   categories,
		status:       status,
		degradations: degradations,
		timings:      timings,
	}
}

// Results returns the ranked results.
func (r *Response) Results() []Result { return r.results }

// Split returns the term split the search executed with.
func (r *Response) Split() terms.Split { return r.split }

// Categories returns the routed categories (empty for the direct approach).
func (r *Response) Categories() []category.Scored { return r.categories }

// Status returns the terminal status.
func (r *Response) Status() Status { return r.status }

// Degradations returns the diagnostic notes for degraded sub-steps.
func (r *Response) Degradations() []string { return r.degradations }

// Timings returns per-stage durations.
func (r *Response) Timings() []Timing { return r.timings }
