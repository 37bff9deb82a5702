// Package taxonomy loads the category reference data from the store.
package taxonomy

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/govscan/tendersearch/internal/domain/search/category"
	"github.com/govscan/tendersearch/internal/logger"
)

// Category hash field names.
const (
	fieldCode      = "code"
	fieldLabel     = "label"
	fieldEmbedding = "embedding"
)

// store is the consumer interface for taxonomy loading (ISP).
type store interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo reads taxonomy categories. The taxonomy is read-only reference data
// owned by the category-generation pipeline.
type Repo struct {
	store  store
	prefix string
}

// New creates a taxonomy repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

func (r *Repo) keyPrefix() string { return r.prefix + "category:" }

// List loads every category with its precomputed embedding. Malformed
// categories are skipped with a warning.
func (r *Repo) List(ctx context.Context) ([]category.Category, error) {
	pattern := r.keyPrefix() + "*"

	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	log := logger.FromContext(ctx)
	categories := make([]category.Category, 0, len(keys))

	for i, fields := range hashes {
		id := strings.TrimPrefix(keys[i], r.keyPrefix())

		embedding, err := bytesToVector([]byte(fields[fieldEmbedding]))
		if err != nil {
			log.Warn("skipping category with bad embedding", zap.String("id", id), zap.Error(err))
			continue
		}

		cat, err := category.New(id, fields[fieldCode], fields[fieldLabel], embedding)
		if err != nil {
			log.Warn("skipping malformed category", zap.String("id", id), zap.Error(err))
			continue
		}
		categories = append(categories, cat)
	}

	return categories, nil
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
