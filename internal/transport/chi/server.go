// Package chi exposes the search API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/govscan/tendersearch/internal/domain"
	"github.com/govscan/tendersearch/internal/domain/search/approach"
	"github.com/govscan/tendersearch/internal/domain/search/order"
	"github.com/govscan/tendersearch/internal/domain/search/query"
	"github.com/govscan/tendersearch/internal/domain/search/relevance"
	"github.com/govscan/tendersearch/internal/domain/search/result"
	"github.com/govscan/tendersearch/internal/domain/search/strategy"
	"github.com/govscan/tendersearch/internal/domain/search/terms"
	healthuc "github.com/govscan/tendersearch/internal/usecase/health"
	searchuc "github.com/govscan/tendersearch/internal/usecase/search"
)

// error codes in API responses.
const (
	codeBadRequest    = "bad_request"
	codeInvalidQuery  = "invalid_query"
	codeSearchFailed  = "search_failed"
	codeUpstreamError = "upstream_unavailable"
	codeInternalError = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search and health endpoints.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrCollaboratorUnavailable, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrEmbeddingInvalidInput, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrSearchFailed, http.StatusServiceUnavailable, codeSearchFailed),
	}
	return s
}

// Routes mounts the API routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.Search)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchRequest is the POST /v1/search payload.
type SearchRequest struct {
	Query          string `json:"query"`
	Strategy       string `json:"strategy,omitempty"`
	Approach       string `json:"approach,omitempty"`
	Relevance      string `json:"relevance,omitempty"`
	Order          string `json:"order,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	CategoryTopN   int    `json:"category_top_n,omitempty"`
	Negation       *bool  `json:"negation,omitempty"`
	IncludeExpired bool   `json:"include_expired,omitempty"`
}

// SearchResultItem is one ranked hit in the response.
type SearchResultItem struct {
	ID            string   `json:"id"`
	Rank          int      `json:"rank"`
	Description   string   `json:"description"`
	Organization  string   `json:"organization,omitempty"`
	Region        string   `json:"region,omitempty"`
	CategoryID    string   `json:"category_id,omitempty"`
	SigningDate   string   `json:"signing_date,omitempty"`
	FinalValue    float64  `json:"final_value,omitempty"`
	Score         float64  `json:"score"`
	SemanticScore float64  `json:"semantic_score"`
	KeywordScore  float64  `json:"keyword_score"`
	Confidence    *float64 `json:"confidence,omitempty"`
}

// RoutedCategory is one taxonomy category the query was routed to.
type RoutedCategory struct {
	ID    string  `json:"id"`
	Code  string  `json:"code,omitempty"`
	Label string  `json:"label,omitempty"`
	Score float64 `json:"score"`
}

// TermSplitResponse echoes the parsed query interpretation.
type TermSplitResponse struct {
	Positive   string              `json:"positive"`
	Negative   string              `json:"negative,omitempty"`
	Conditions []ConditionResponse `json:"conditions,omitempty"`
}

// ConditionResponse is one structured condition the query was parsed into.
type ConditionResponse struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// StageTiming reports one pipeline stage duration.
type StageTiming struct {
	Stage      string  `json:"stage"`
	DurationMS float64 `json:"duration_ms"`
}

// SearchResponse is the POST /v1/search response body.
type SearchResponse struct {
	Status       string             `json:"status"`
	Results      []SearchResultItem `json:"results"`
	Split        TermSplitResponse  `json:"split"`
	Categories   []RoutedCategory   `json:"categories,omitempty"`
	Degradations []string           `json:"degradations,omitempty"`
	Timings      []StageTiming      `json:"timings,omitempty"`
}

// ErrorResponse is the API error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := queryFromRequest(req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, responseToAPI(&resp))
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func queryFromRequest(req SearchRequest) (query.Query, error) {
	negation := true
	if req.Negation != nil {
		negation = *req.Negation
	}

	return query.New(
		req.Query,
		strategy.Strategy(req.Strategy),
		approach.Approach(req.Approach),
		relevance.Level(req.Relevance),
		order.Key(req.Order),
		req.Limit,
		req.CategoryTopN,
		negation,
		req.IncludeExpired,
	)
}

func responseToAPI(resp *result.Response) SearchResponse {
	items := make([]SearchResultItem, 0, len(resp.Results()))
	for _, res := range resp.Results() {
		rec := res.Record()
		item := SearchResultItem{
			ID:            res.ID(),
			Rank:          res.Rank(),
			Description:   rec.Description(),
			Organization:  rec.Organization(),
			Region:        rec.Region(),
			CategoryID:    rec.CategoryID(),
			Score:         res.Score(),
			SemanticScore: res.SemanticScore(),
			KeywordScore:  res.KeywordScore(),
			Confidence:    res.Confidence(),
		}
		if rec.HasSigningDate() {
			item.SigningDate = rec.SigningDate().UTC().Format("2006-01-02")
		}
		if rec.HasFinalValue() {
			item.FinalValue = rec.FinalValue()
		}
		items = append(items, item)
	}

	split := resp.Split()
	conditions := make([]ConditionResponse, 0, len(split.Conditions()))
	for _, c := range split.Conditions() {
		conditions = append(conditions, ConditionResponse{
			Field: string(c.Field()),
			Value: conditionValue(c),
		})
	}

	categories := make([]RoutedCategory, 0, len(resp.Categories()))
	for _, sc := range resp.Categories() {
		categories = append(categories, RoutedCategory{
			ID:    sc.Category.ID(),
			Code:  sc.Category.Code(),
			Label: sc.Category.Label(),
			Score: sc.Score,
		})
	}

	timings := make([]StageTiming, 0, len(resp.Timings()))
	for _, t := range resp.Timings() {
		timings = append(timings, StageTiming{
			Stage:      t.Stage,
			DurationMS: float64(t.Duration.Microseconds()) / 1000.0,
		})
	}

	return SearchResponse{
		Status:  string(resp.Status()),
		Results: items,
		Split: TermSplitResponse{
			Positive:   split.Positive(),
			Negative:   split.Negative(),
			Conditions: conditions,
		},
		Categories:   categories,
		Degradations: resp.Degradations(),
		Timings:      timings,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrCollaboratorUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrEmbeddingInvalidInput,
		domain.ErrSearchFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// conditionValue formats a typed condition back into its wire form.
func conditionValue(c terms.Condition) string {
	switch {
	case c.Field().IsDate():
		return c.Date().Format(terms.DateLayout)
	case c.Field().IsNumeric():
		return strconv.FormatFloat(c.Number(), 'f', -1, 64)
	default:
		return c.Text()
	}
}
