package search

import "github.com/govscan/tendersearch/internal/domain/search/result"

// fuse blends the semantic and keyword candidate lists into one. Keyword BM25
// scores are unbounded, so they are max-normalized within this query before
// blending; semantic scores are already in [0,1]. A record present in only one
// list contributes 0 for the missing signal.
//
// The output order is semantic hits first, then keyword-only hits, but callers
// must not rely on it: ranking imposes the final order.
func fuse(semantic, keyword []result.Result, semanticWeight, keywordWeight float64) []result.Result {
	var maxKeyword float64
	for i := range keyword {
		if s := keyword[i].KeywordScore(); s > maxKeyword {
			maxKeyword = s
		}
	}

	normalized := func(r *result.Result) float64 {
		if maxKeyword == 0 {
			return 0
		}
		return r.KeywordScore() / maxKeyword
	}

	keywordByID := make(map[string]*result.Result, len(keyword))
	for i := range keyword {
		keywordByID[keyword[i].ID()] = &keyword[i]
	}

	fused := make([]result.Result, 0, len(semantic)+len(keyword))
	seen := make(map[string]struct{}, len(semantic))
	for i := range semantic {
		sem := &semantic[i]
		seen[sem.ID()] = struct{}{}

		var kwNorm float64
		if kw, ok := keywordByID[sem.ID()]; ok {
			kwNorm = normalized(kw)
		}
		combined := semanticWeight*sem.SemanticScore() + keywordWeight*kwNorm
		fused = append(fused, result.New(sem.Record(), sem.SemanticScore(), kwNorm, combined))
	}

	for i := range keyword {
		kw := &keyword[i]
		if _, ok := seen[kw.ID()]; ok {
			continue
		}
		kwNorm := normalized(kw)
		fused = append(fused, result.New(kw.Record(), 0, kwNorm, keywordWeight*kwNorm))
	}
	return fused
}
