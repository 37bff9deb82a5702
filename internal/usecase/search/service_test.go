package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/govscan/tendersearch/internal/domain"
	"github.com/govscan/tendersearch/internal/domain/search/approach"
	"github.com/govscan/tendersearch/internal/domain/search/category"
	"github.com/govscan/tendersearch/internal/domain/search/order"
	"github.com/govscan/tendersearch/internal/domain/search/query"
	"github.com/govscan/tendersearch/internal/domain/search/record"
	"github.com/govscan/tendersearch/internal/domain/search/relevance"
	"github.com/govscan/tendersearch/internal/domain/search/result"
	"github.com/govscan/tendersearch/internal/domain/search/scope"
	"github.com/govscan/tendersearch/internal/domain/search/strategy"
	"github.com/govscan/tendersearch/internal/domain/search/terms"
)

// --- Mocks ---

type mockRepo struct {
	semanticResults []result.Result
	semanticErr     error
	keywordResults  []result.Result
	keywordErr      error

	semanticCalls int
	keywordCalls  int
	lastScope     scope.Scope
	lastNegative  string
}

func (m *mockRepo) Semantic(
	_ context.Context, _ []float32, sc scope.Scope, _ int,
) ([]result.Result, int, error) {
	m.semanticCalls++
	m.lastScope = sc
	if m.semanticErr != nil {
		return nil, 0, m.semanticErr
	}
	return filterByScope(m.semanticResults, sc), 0, nil
}

func (m *mockRepo) Keyword(
	_ context.Context, positive, negative string, sc scope.Scope, _ int,
) ([]result.Result, int, error) {
	m.keywordCalls++
	m.lastScope = sc
	m.lastNegative = negative
	if m.keywordErr != nil {
		return nil, 0, m.keywordErr
	}

	out := make([]result.Result, 0, len(m.keywordResults))
	for _, r := range filterByScope(m.keywordResults, sc) {
		if containsAnyTerm(r.Record().Description(), positive) &&
			(negative == "" || !containsAnyTerm(r.Record().Description(), negative)) {
			out = append(out, r)
		}
	}
	return out, 0, nil
}

// filterByScope applies the conditions and category restriction the way the
// real store would, so containment invariants are observable in tests.
func filterByScope(rs []result.Result, sc scope.Scope) []result.Result {
	out := make([]result.Result, 0, len(rs))
	for _, r := range rs {
		if !matchesScope(r.Record(), sc) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesScope(rec record.Record, sc scope.Scope) bool {
	if len(sc.CategoryIDs) > 0 {
		found := false
		for _, id := range sc.CategoryIDs {
			if rec.CategoryID() == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, c := range sc.Conditions {
		switch c.Field() {
		case terms.DateBefore:
			if !rec.HasSigningDate() || !rec.SigningDate().Before(c.Date()) {
				return false
			}
		case terms.DateAfter:
			if !rec.HasSigningDate() || !rec.SigningDate().After(c.Date()) {
				return false
			}
		case terms.ValueAbove:
			if rec.FinalValue() <= c.Number() {
				return false
			}
		case terms.ValueBelow:
			if rec.FinalValue() >= c.Number() {
				return false
			}
		case terms.RegionIs:
			if rec.Region() != c.Text() {
				return false
			}
		case terms.OrganizationIs:
			if rec.Organization() != c.Text() {
				return false
			}
		}
	}
	return true
}

func containsAnyTerm(text, queryTerms string) bool {
	for _, term := range strings.Fields(strings.ToLower(queryTerms)) {
		if strings.Contains(strings.ToLower(text), term) {
			return true
		}
	}
	return false
}

type mockPreprocessor struct {
	split terms.Split
	notes []string
}

func (m *mockPreprocessor) Preprocess(_ context.Context, _ string) (terms.Split, []string) {
	return m.split, m.notes
}

type mockVectorizer struct {
	fullVec     []float32
	fullErr     error
	positiveVec []float32
	positiveErr error

	fullCalls     int
	positiveCalls int
}

func (m *mockVectorizer) Full(_ context.Context, _ terms.Split, _ bool) ([]float32, error) {
	m.fullCalls++
	return m.fullVec, m.fullErr
}

func (m *mockVectorizer) Positive(_ context.Context, _ terms.Split) ([]float32, error) {
	m.positiveCalls++
	return m.positiveVec, m.positiveErr
}

type mockRouter struct {
	categories []category.Scored
	err        error
	calls      int
}

func (m *mockRouter) Top(_ context.Context, _ []float32, n int) ([]category.Scored, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.categories) > n {
		return m.categories[:n], nil
	}
	return m.categories, nil
}

type mockFilter struct {
	rejectAll bool
	notes     []string
}

func (m *mockFilter) Filter(
	_ context.Context, _ string, level relevance.Level, candidates []result.Result,
) ([]result.Result, []string, error) {
	if level == relevance.None {
		return candidates, nil, nil
	}
	if m.rejectAll {
		return nil, m.notes, nil
	}
	return candidates, m.notes, nil
}

// --- Helpers ---

func makeHit(t *testing.T, id, description, region, categoryID string, signed time.Time, score float64) result.Result {
	t.Helper()
	rec, err := record.New(id, description, "org", region, categoryID, signed, 0, false)
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return result.New(rec, score, 0, score)
}

func keywordHitRec(t *testing.T, id, description string, signed time.Time, score float64) result.Result {
	t.Helper()
	rec, err := record.New(id, description, "org", "northeast", "c1", signed, 0, false)
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return result.New(rec, 0, score, score)
}

func mustQuery(
	t *testing.T, text string, st strategy.Strategy, ap approach.Approach, lvl relevance.Level, limit int,
) query.Query {
	t.Helper()
	q, err := query.New(text, st, ap, lvl, order.Similarity, limit, 0, true, false)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	return q
}

func mustSplit(t *testing.T, positive, negative string, conditions ...terms.Condition) terms.Split {
	t.Helper()
	s, err := terms.NewSplit(positive, negative, conditions)
	if err != nil {
		t.Fatalf("build split: %v", err)
	}
	return s
}

func newService(repo *mockRepo, pre *mockPreprocessor, vec *mockVectorizer, router *mockRouter, filter RelevanceFilter) *Service {
	return New(repo, pre, vec, router, filter, Config{
		SemanticWeight:  0.5,
		KeywordWeight:   0.5,
		CandidateFactor: 3,
	})
}

// --- Tests ---

// Keyword strategy, direct approach: positive terms match, the excluded term
// is absent, exactly limit results come back, no embedding call is made.
func TestSearch_KeywordDirect(t *testing.T) {
	signed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{keywordResults: []result.Result{
		keywordHitRec(t, "n1", "school meals supply northeast", signed, 9),
		keywordHitRec(t, "n2", "school meals catering", signed, 8),
		keywordHitRec(t, "n3", "meals for schools", signed, 7),
		keywordHitRec(t, "n4", "school meal vendors", signed, 6),
		keywordHitRec(t, "n5", "northeast school meals program", signed, 5),
		keywordHitRec(t, "n6", "school meals with meat products", signed, 4),
		keywordHitRec(t, "n7", "unrelated road repair", signed, 3),
	}}
	pre := &mockPreprocessor{split: mustSplit(t, "school meals northeast", "meat")}
	vec := &mockVectorizer{}
	svc := newService(repo, pre, vec, &mockRouter{}, &mockFilter{})

	q := mustQuery(t, "school meals Northeast -- meat", strategy.Keyword, approach.Direct, relevance.None, 5)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status() != result.Success {
		t.Errorf("expected status success, got %s", resp.Status())
	}
	if len(resp.Results()) != 5 {
		t.Fatalf("expected exactly 5 results, got %d", len(resp.Results()))
	}
	for _, r := range resp.Results() {
		desc := strings.ToLower(r.Record().Description())
		if !containsAnyTerm(desc, "school meals northeast") {
			t.Errorf("result %s matches no positive term: %q", r.ID(), desc)
		}
		if strings.Contains(desc, "meat") {
			t.Errorf("result %s contains the excluded term: %q", r.ID(), desc)
		}
	}
	if vec.fullCalls != 0 || vec.positiveCalls != 0 {
		t.Errorf("keyword+direct must not embed, got %d/%d calls", vec.fullCalls, vec.positiveCalls)
	}
}

// Filter approach with a date-before condition: every returned record's
// signing date is strictly before the bound.
func TestSearch_FilterApproachConditions(t *testing.T) {
	bound, _ := terms.Coerce("date_before", "2025-09-01")
	repo := &mockRepo{keywordResults: []result.Result{
		keywordHitRec(t, "old", "school meals early", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), 9),
		keywordHitRec(t, "edge", "school meals on the bound", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), 8),
		keywordHitRec(t, "late", "school meals late", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), 7),
	}}
	pre := &mockPreprocessor{split: mustSplit(t, "school meals", "", bound)}
	vec := &mockVectorizer{positiveVec: []float32{1, 0}}
	svc := newService(repo, pre, vec, &mockRouter{categories: []category.Scored{}}, &mockFilter{})

	q := mustQuery(t, "school meals before september", strategy.Keyword, approach.Filter, relevance.None, 10)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Results()) != 1 {
		t.Fatalf("expected 1 result before the bound, got %d", len(resp.Results()))
	}
	if resp.Results()[0].ID() != "old" {
		t.Errorf("expected old, got %s", resp.Results()[0].ID())
	}
	if len(repo.lastScope.Conditions) != 1 {
		t.Errorf("expected condition passed to the store, got %d", len(repo.lastScope.Conditions))
	}
}

// Judge stubbed to reject everything: restrictive yields an empty list with
// status success; none on the identical query returns the unfiltered set.
func TestSearch_RestrictiveRejectAll(t *testing.T) {
	repo := &mockRepo{keywordResults: []result.Result{
		keywordHitRec(t, "n1", "school meals", time.Time{}, 9),
		keywordHitRec(t, "n2", "school meals too", time.Time{}, 8),
	}}
	pre := &mockPreprocessor{split: mustSplit(t, "school meals", "")}
	filter := &mockFilter{rejectAll: true}
	svc := newService(repo, pre, &mockVectorizer{}, &mockRouter{}, filter)

	q := mustQuery(t, "school meals", strategy.Keyword, approach.Direct, relevance.Restrictive, 10)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results()) != 0 {
		t.Fatalf("expected empty result list, got %d", len(resp.Results()))
	}
	if resp.Status() != result.Success {
		t.Errorf("zero matches is a valid outcome, expected success, got %s", resp.Status())
	}

	q2 := mustQuery(t, "school meals", strategy.Keyword, approach.Direct, relevance.None, 10)
	resp2, err := svc.Search(context.Background(), &q2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp2.Results()) != 2 {
		t.Fatalf("expected unfiltered set with relevance none, got %d", len(resp2.Results()))
	}
}

// Correspondence approach: every returned record's category is in the routed
// top-N set.
func TestSearch_CorrespondenceContainment(t *testing.T) {
	c1, _ := category.New("c1", "01", "food services", []float32{1, 0})
	c2, _ := category.New("c2", "02", "construction", []float32{0, 1})
	repo := &mockRepo{semanticResults: []result.Result{
		makeHit(t, "in1", "school meals", "northeast", "c1", time.Time{}, 0.9),
		makeHit(t, "in2", "catering services", "northeast", "c2", time.Time{}, 0.8),
		makeHit(t, "out", "road construction", "northeast", "c9", time.Time{}, 0.7),
	}}
	pre := &mockPreprocessor{split: mustSplit(t, "school meals", "")}
	vec := &mockVectorizer{fullVec: []float32{1, 0}, positiveVec: []float32{1, 0}}
	router := &mockRouter{categories: []category.Scored{
		{Category: c1, Score: 0.95},
		{Category: c2, Score: 0.60},
	}}
	svc := newService(repo, pre, vec, router, &mockFilter{})

	q := mustQuery(t, "school meals", strategy.Semantic, approach.Correspondence, relevance.None, 10)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	routed := map[string]bool{}
	for _, c := range resp.Categories() {
		routed[c.Category.ID()] = true
	}
	if len(routed) != 2 {
		t.Fatalf("expected 2 routed categories, got %d", len(routed))
	}
	if len(resp.Results()) != 2 {
		t.Fatalf("expected 2 results inside routed categories, got %d", len(resp.Results()))
	}
	for _, r := range resp.Results() {
		if !routed[r.Record().CategoryID()] {
			t.Errorf("result %s category %s outside routed set", r.ID(), r.Record().CategoryID())
		}
	}
}

// Filter approach reports routed categories without restricting by them.
func TestSearch_FilterApproachReportsRouting(t *testing.T) {
	c1, _ := category.New("c1", "01", "food services", []float32{1, 0})
	repo := &mockRepo{keywordResults: []result.Result{
		keywordHitRec(t, "n1", "school meals", time.Time{}, 9),
	}}
	pre := &mockPreprocessor{split: mustSplit(t, "school meals", "")}
	vec := &mockVectorizer{positiveVec: []float32{1, 0}}
	router := &mockRouter{categories: []category.Scored{{Category: c1, Score: 0.9}}}
	svc := newService(repo, pre, vec, router, &mockFilter{})

	q := mustQuery(t, "school meals", strategy.Keyword, approach.Filter, relevance.None, 10)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Categories()) != 1 {
		t.Fatalf("expected routed categories reported, got %d", len(resp.Categories()))
	}
	if len(repo.lastScope.CategoryIDs) != 0 {
		t.Errorf("filter approach must not restrict by category, got %v", repo.lastScope.CategoryIDs)
	}
}

func TestSearch_HybridFusesBothLegs(t *testing.T) {
	repo := &mockRepo{
		semanticResults: []result.Result{makeHit(t, "a", "school meals", "northeast", "c1", time.Time{}, 0.8)},
		keywordResults:  []result.Result{keywordHitRec(t, "b", "school meals too", time.Time{}, 5)},
	}
	pre := &mockPreprocessor{split: mustSplit(t, "school meals", "")}
	vec := &mockVectorizer{fullVec: []float32{1, 0}}
	svc := newService(repo, pre, vec, &mockRouter{}, &mockFilter{})

	q := mustQuery(t, "school meals", strategy.Hybrid, approach.Direct, relevance.None, 10)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.semanticCalls != 1 || repo.keywordCalls != 1 {
		t.Errorf("expected both legs to run, got %d/%d", repo.semanticCalls, repo.keywordCalls)
	}
	if len(resp.Results()) != 2 {
		t.Fatalf("expected results from both legs, got %d", len(resp.Results()))
	}
}

func TestSearch_HybridOneLegDegrades(t *testing.T) {
	repo := &mockRepo{
		semanticErr:    errors.New("index gone"),
		keywordResults: []result.Result{keywordHitRec(t, "b", "school meals", time.Time{}, 5)},
	}
	pre := &mockPreprocessor{split: mustSplit(t, "school meals", "")}
	vec := &mockVectorizer{fullVec: []float32{1, 0}}
	svc := newService(repo, pre, vec, &mockRouter{}, &mockFilter{})

	q := mustQuery(t, "school meals", strategy.Hybrid, approach.Direct, relevance.None, 10)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status() != result.Partial {
		t.Errorf("expected partial status, got %s", resp.Status())
	}
	if len(resp.Results()) != 1 {
		t.Fatalf("expected surviving keyword leg results, got %d", len(resp.Results()))
	}
	if len(resp.Degradations()) == 0 {
		t.Error("expected a degradation note")
	}
}

func TestSearch_BothLegsFailFatal(t *testing.T) {
	repo := &mockRepo{
		semanticErr: errors.New("down"),
		keywordErr:  errors.New("down"),
	}
	pre := &mockPreprocessor{split: mustSplit(t, "school meals", "")}
	vec := &mockVectorizer{fullVec: []float32{1, 0}}
	svc := newService(repo, pre, vec, &mockRouter{}, &mockFilter{})

	q := mustQuery(t, "school meals", strategy.Hybrid, approach.Direct, relevance.None, 10)
	_, err := svc.Search(context.Background(), &q)
	if !errors.Is(err, domain.ErrSearchFailed) {
		t.Fatalf("expected ErrSearchFailed, got %v", err)
	}
}

func TestSearch_EmbeddingFailureFatalForSemantic(t *testing.T) {
	pre := &mockPreprocessor{split: mustSplit(t, "school meals", "")}
	vec := &mockVectorizer{fullErr: errors.New("provider down")}
	svc := newService(&mockRepo{}, pre, vec, &mockRouter{}, &mockFilter{})

	q := mustQuery(t, "school meals", strategy.Semantic, approach.Direct, relevance.None, 10)
	if _, err := svc.Search(context.Background(), &q); err == nil {
		t.Fatal("expected error when the strategy needs the vector")
	}
}

func TestSearch_RoutingEmbeddingFailureDegrades(t *testing.T) {
	repo := &mockRepo{keywordResults: []result.Result{
		keywordHitRec(t, "n1", "school meals", time.Time{}, 9),
	}}
	pre := &mockPreprocessor{split: mustSplit(t, "school meals", "")}
	vec := &mockVectorizer{positiveErr: errors.New("provider down")}
	router := &mockRouter{}
	svc := newService(repo, pre, vec, router, &mockFilter{})

	q := mustQuery(t, "school meals", strategy.Keyword, approach.Correspondence, relevance.None, 10)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("expected degradation, got error: %v", err)
	}
	if resp.Status() != result.Partial {
		t.Errorf("expected partial status, got %s", resp.Status())
	}
	if router.calls != 0 {
		t.Errorf("router must not run without a vector, got %d calls", router.calls)
	}
	if len(resp.Results()) != 1 {
		t.Fatalf("expected keyword results despite routing loss, got %d", len(resp.Results()))
	}
}

func TestSearch_RouterFailureDegrades(t *testing.T) {
	repo := &mockRepo{semanticResults: []result.Result{
		makeHit(t, "n1", "school meals", "northeast", "c1", time.Time{}, 0.9),
	}}
	pre := &mockPreprocessor{split: mustSplit(t, "school meals", "")}
	vec := &mockVectorizer{fullVec: []float32{1, 0}, positiveVec: []float32{1, 0}}
	router := &mockRouter{err: domain.ErrTaxonomyEmpty}
	svc := newService(repo, pre, vec, router, &mockFilter{})

	q := mustQuery(t, "school meals", strategy.Semantic, approach.Correspondence, relevance.None, 10)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status() != result.Partial {
		t.Errorf("expected partial status, got %s", resp.Status())
	}
	if len(repo.lastScope.CategoryIDs) != 0 {
		t.Errorf("expected unrestricted scope after routing failure, got %v", repo.lastScope.CategoryIDs)
	}
}

func TestSearch_PreprocessNotesMakePartial(t *testing.T) {
	repo := &mockRepo{keywordResults: []result.Result{
		keywordHitRec(t, "n1", "school meals", time.Time{}, 9),
	}}
	pre := &mockPreprocessor{
		split: mustSplit(t, "school meals", ""),
		notes: []string{"intelligent preprocessing degraded to lexical split"},
	}
	svc := newService(repo, pre, &mockVectorizer{}, &mockRouter{}, &mockFilter{})

	q := mustQuery(t, "school meals", strategy.Keyword, approach.Direct, relevance.None, 10)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status() != result.Partial {
		t.Errorf("expected partial status, got %s", resp.Status())
	}
	if len(resp.Degradations()) != 1 {
		t.Errorf("expected the note propagated, got %v", resp.Degradations())
	}
}

func TestSearch_TimingsRecorded(t *testing.T) {
	repo := &mockRepo{keywordResults: []result.Result{
		keywordHitRec(t, "n1", "school meals", time.Time{}, 9),
	}}
	pre := &mockPreprocessor{split: mustSplit(t, "school meals", "")}
	svc := newService(repo, pre, &mockVectorizer{}, &mockRouter{}, &mockFilter{})

	q := mustQuery(t, "school meals", strategy.Keyword, approach.Direct, relevance.None, 10)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stages := map[string]bool{}
	for _, tm := range resp.Timings() {
		stages[tm.Stage] = true
	}
	for _, want := range []string{"preprocess", "embed", "route", "execute", "relevance", "rank"} {
		if !stages[want] {
			t.Errorf("missing timing for stage %q", want)
		}
	}
}
