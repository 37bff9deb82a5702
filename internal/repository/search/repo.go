// Package search translates domain search requests into store queries and
// parses notice hashes back into domain records.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/govscan/tendersearch/internal/db"
	"github.com/govscan/tendersearch/internal/domain/search/record"
	"github.com/govscan/tendersearch/internal/domain/search/result"
	"github.com/govscan/tendersearch/internal/domain/search/scope"
	"github.com/govscan/tendersearch/internal/domain/search/terms"
	"github.com/govscan/tendersearch/internal/logger"
)

// Notice hash field names.
const (
	fieldDescription  = "description"
	fieldOrganization = "organization"
	fieldRegion       = "region"
	fieldCategoryID   = "category_id"
	fieldSigningDate  = "signing_date"
	fieldFinalValue   = "final_value"
	fieldExpired      = "expired"
)

var returnFields = []string{
	fieldDescription, fieldOrganization, fieldRegion, fieldCategoryID,
	fieldSigningDate, fieldFinalValue, fieldExpired,
}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.VectorQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements the search usecase's Repository contract.
type Repo struct {
	store  store
	prefix string
}

// New creates a search repository. keyPrefix namespaces all store keys.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

func (r *Repo) indexName() string { return r.prefix + "notice:idx" }
func (r *Repo) keyPrefix() string { return r.prefix + "notice:" }

// Semantic runs a KNN similarity search within the scope. Returned results
// carry the cosine score as both the semantic sub-score and the combined score.
// The second return value counts candidates skipped for integrity reasons.
func (r *Repo) Semantic(
	ctx context.Context, vector []float32, sc scope.Scope, topK int,
) ([]result.Result, int, error) {
	filters, err := buildScopeFilter(sc)
	if err != nil {
		return nil, 0, fmt.Errorf("build scope filter: %w", err)
	}

	sr, err := r.store.SearchKNN(ctx, &db.VectorQuery{
		Index:        r.indexName(),
		Filters:      filters,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search knn: %w", err)
	}

	return r.parseEntries(ctx, sr, func(rec record.Record, score float64) result.Result {
		return result.New(rec, score, 0, score)
	})
}

// Keyword runs a full-text search within the scope over the positive terms;
// negative terms exclude matching records outright. Scores are raw BM25.
func (r *Repo) Keyword(
	ctx context.Context, positive, negative string, sc scope.Scope, topK int,
) ([]result.Result, int, error) {
	filters, err := buildScopeFilter(sc)
	if err != nil {
		return nil, 0, fmt.Errorf("build scope filter: %w", err)
	}

	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		Index:        r.indexName(),
		Positive:     positive,
		Negative:     negative,
		Filters:      filters,
		TopK:         topK,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search text: %w", err)
	}

	return r.parseEntries(ctx, sr, func(rec record.Record, score float64) result.Result {
		return result.New(rec, 0, score, score)
	})
}

// parseEntries converts store entries into scored results, skipping entries
// that violate the expected schema.
func (r *Repo) parseEntries(
	ctx context.Context, sr *db.SearchResult,
	build func(record.Record, float64) result.Result,
) ([]result.Result, int, error) {
	if sr == nil || sr.Total == 0 {
		return nil, 0, nil
	}

	log := logger.FromContext(ctx)
	results := make([]result.Result, 0, len(sr.Entries))
	skipped := 0

	for _, entry := range sr.Entries {
		id, ok := strings.CutPrefix(entry.Key, r.keyPrefix())
		if !ok || id == "" {
			log.Warn("skipping notice with foreign key", zap.String("key", entry.Key))
			skipped++
			continue
		}
		rec, err := parseRecord(id, entry.Fields)
		if err != nil {
			log.Warn("skipping malformed notice", zap.String("key", entry.Key), zap.Error(err))
			skipped++
			continue
		}
		results = append(results, build(rec, entry.Score))
	}

	return results, skipped, nil
}

// parseRecord builds a domain record from raw hash fields.
func parseRecord(id string, fields map[string]string) (record.Record, error) {
	desc := fields[fieldDescription]

	var signingDate time.Time
	if raw, ok := fields[fieldSigningDate]; ok && raw != "" && raw != "0" {
		sec, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return record.Record{}, fmt.Errorf("parse signing_date %q: %w", raw, err)
		}
		signingDate = time.Unix(sec, 0).UTC()
	}

	var finalValue float64
	if raw, ok := fields[fieldFinalValue]; ok && raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return record.Record{}, fmt.Errorf("parse final_value %q: %w", raw, err)
		}
		finalValue = v
	}

	return record.New(
		id, desc,
		fields[fieldOrganization], fields[fieldRegion], fields[fieldCategoryID],
		signingDate, finalValue,
		fields[fieldExpired] == "1",
	)
}

// buildScopeFilter translates a candidate scope into a storage pre-filter.
func buildScopeFilter(sc scope.Scope) (db.Filter, error) {
	var must, anyOf, mustNot []db.Condition

	for _, cond := range sc.Conditions {
		c, err := conditionToDB(cond)
		if err != nil {
			return db.Filter{}, err
		}
		must = append(must, c)
	}

	for _, id := range sc.CategoryIDs {
		c, err := db.NewMatch(fieldCategoryID, id)
		if err != nil {
			return db.Filter{}, fmt.Errorf("category condition: %w", err)
		}
		anyOf = append(anyOf, c)
	}

	if !sc.IncludeExpired {
		c, err := db.NewMatch(fieldExpired, "1")
		if err != nil {
			return db.Filter{}, fmt.Errorf("expired condition: %w", err)
		}
		mustNot = append(mustNot, c)
	}

	return db.NewFilter(must, anyOf, mustNot)
}

// conditionToDB maps one typed term condition onto a storage condition.
func conditionToDB(cond terms.Condition) (db.Condition, error) {
	switch cond.Field() {
	case terms.DateBefore:
		ts := float64(cond.Date().Unix())
		rng, err := db.NewRangeBounds(nil, nil, &ts, nil)
		if err != nil {
			return db.Condition{}, err
		}
		return db.NewRange(fieldSigningDate, rng)
	case terms.DateAfter:
		ts := float64(cond.Date().Unix())
		rng, err := db.NewRangeBounds(&ts, nil, nil, nil)
		if err != nil {
			return db.Condition{}, err
		}
		return db.NewRange(fieldSigningDate, rng)
	case terms.ValueAbove:
		v := cond.Number()
		rng, err := db.NewRangeBounds(&v, nil, nil, nil)
		if err != nil {
			return db.Condition{}, err
		}
		return db.NewRange(fieldFinalValue, rng)
	case terms.ValueBelow:
		v := cond.Number()
		rng, err := db.NewRangeBounds(nil, nil, &v, nil)
		if err != nil {
			return db.Condition{}, err
		}
		return db.NewRange(fieldFinalValue, rng)
	case terms.RegionIs:
		return db.NewMatch(fieldRegion, cond.Text())
	case terms.OrganizationIs:
		return db.NewMatch(fieldOrganization, cond.Text())
	default:
		return db.Condition{}, fmt.Errorf("unmapped condition field %q", cond.Field())
	}
}
