package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/govscan/tendersearch/internal/db"
	"github.com/govscan/tendersearch/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ctx := context.Background()

	// GET → ErrKeyNotFound (cache miss)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	// SET → OK (cache put)
	var setCalled bool
	ms.setFn = func(_ context.Context, key string, _ []byte) error {
		setCalled = true
		if !strings.HasPrefix(key, "tender:emb_cache:") {
			t.Fatalf("unexpected cache key: %s", key)
		}
		return nil
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !setCalled {
		t.Fatal("expected SET to be called for cache put")
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3},
	}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ctx := context.Background()

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})

	// GET → cached bytes
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Fatalf("expected no inner calls on hit, got %d", inner.calls)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	wantErr := errors.New("provider down")
	inner := &mockEmbedder{err: wantErr}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ctx := context.Background()

	var setCalled bool
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		setCalled = true
		return nil
	}

	_, err := ce.Embed(ctx, "test text")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected inner error, got: %v", err)
	}
	if setCalled {
		t.Fatal("expected no cache put after inner failure")
	}
}

func TestEmbed_CacheGetFailureFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.7},
	}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ctx := context.Background()

	// Non-miss store error must not fail the request.
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 1 || result.Embedding[0] != 0.7 {
		t.Fatalf("expected inner vector, got: %v", result.Embedding)
	}
	if inner.calls != 1 {
		t.Fatalf("expected exactly one inner call, got %d", inner.calls)
	}
}

func TestEmbed_TTLUsesSetWithTTL(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1},
	}}
	ce, ms := newTestCachedEmbedder(t, inner, time.Hour)
	ctx := context.Background()

	var gotTTL time.Duration
	ms.setWithTTLFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return nil
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		t.Fatal("expected SetWithTTL, not Set")
		return nil
	}

	if _, err := ce.Embed(ctx, "test text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTTL != time.Hour {
		t.Fatalf("expected ttl=1h, got %v", gotTTL)
	}
}

func TestEmbed_CachePutFailureIsNonFatal(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.2},
	}}
	ce, ms := newTestCachedEmbedder(t, inner, 0)
	ctx := context.Background()

	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		return errors.New("write failed")
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 1 || result.Embedding[0] != 0.2 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
}
