package search

import (
	"math"
	"testing"
	"time"

	"github.com/govscan/tendersearch/internal/domain/search/record"
	"github.com/govscan/tendersearch/internal/domain/search/result"
)

func semanticHit(t *testing.T, id string, score float64) result.Result {
	t.Helper()
	rec, err := record.New(id, "notice "+id, "org", "north", "c1", time.Time{}, 0, false)
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return result.New(rec, score, 0, score)
}

func keywordHit(t *testing.T, id string, score float64) result.Result {
	t.Helper()
	rec, err := record.New(id, "notice "+id, "org", "north", "c1", time.Time{}, 0, false)
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return result.New(rec, 0, score, score)
}

func TestFuse_BlendsOverlap(t *testing.T) {
	semantic := []result.Result{semanticHit(t, "a", 0.8)}
	keyword := []result.Result{keywordHit(t, "a", 12.0), keywordHit(t, "b", 6.0)}

	fused := fuse(semantic, keyword, 0.5, 0.5)
	if len(fused) != 2 {
		t.Fatalf("expected 2 fused results, got %d", len(fused))
	}

	// a: semantic 0.8, keyword 12/12=1.0 -> 0.5*0.8 + 0.5*1.0 = 0.9
	if fused[0].ID() != "a" || math.Abs(fused[0].Score()-0.9) > 1e-9 {
		t.Errorf("expected a with score 0.9, got %s %v", fused[0].ID(), fused[0].Score())
	}
	// b: keyword only, 6/12=0.5 -> 0.5*0.5 = 0.25
	if fused[1].ID() != "b" || math.Abs(fused[1].Score()-0.25) > 1e-9 {
		t.Errorf("expected b with score 0.25, got %s %v", fused[1].ID(), fused[1].Score())
	}
}

func TestFuse_KeywordMaxNormalization(t *testing.T) {
	keyword := []result.Result{keywordHit(t, "a", 40.0), keywordHit(t, "b", 10.0)}

	fused := fuse(nil, keyword, 0.5, 0.5)
	if fused[0].KeywordScore() != 1.0 {
		t.Errorf("expected top keyword score normalized to 1.0, got %v", fused[0].KeywordScore())
	}
	if fused[1].KeywordScore() != 0.25 {
		t.Errorf("expected keyword score 0.25, got %v", fused[1].KeywordScore())
	}
}

func TestFuse_SemanticOnly(t *testing.T) {
	semantic := []result.Result{semanticHit(t, "a", 0.6)}

	fused := fuse(semantic, nil, 0.5, 0.5)
	if len(fused) != 1 {
		t.Fatalf("expected 1 result, got %d", len(fused))
	}
	if math.Abs(fused[0].Score()-0.3) > 1e-9 {
		t.Errorf("expected score 0.3 with missing keyword signal, got %v", fused[0].Score())
	}
	if fused[0].KeywordScore() != 0 {
		t.Errorf("expected keyword sub-score 0, got %v", fused[0].KeywordScore())
	}
}

func TestFuse_Empty(t *testing.T) {
	if got := fuse(nil, nil, 0.5, 0.5); len(got) != 0 {
		t.Fatalf("expected empty fusion, got %d", len(got))
	}
}
