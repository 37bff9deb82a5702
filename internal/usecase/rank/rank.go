// Package rank orders a candidate set deterministically and assigns final ranks.
package rank

import (
	"sort"

	"github.com/govscan/tendersearch/internal/domain/search/order"
	"github.com/govscan/tendersearch/internal/domain/search/result"
)

// Rank dedupes, orders, truncates to limit and assigns 1-based ranks.
// The ordering is a total order so the same inputs always produce the
// same result list.
func Rank(candidates []result.Result, key order.Key, limit int) []result.Result {
	deduped := Dedupe(candidates)

	sort.SliceStable(deduped, less(deduped, key))

	if limit > 0 && len(deduped) > limit {
		deduped = deduped[:limit]
	}

	ranked := make([]result.Result, 0, len(deduped))
	for i, r := range deduped {
		ranked = append(ranked, r.WithRank(i+1))
	}
	return ranked
}

// Dedupe collapses duplicate record identifiers, keeping the occurrence with
// the higher combined score.
func Dedupe(candidates []result.Result) []result.Result {
	best := make(map[string]int, len(candidates))
	out := make([]result.Result, 0, len(candidates))
	for _, c := range candidates {
		idx, seen := best[c.ID()]
		if !seen {
			best[c.ID()] = len(out)
			out = append(out, c)
			continue
		}
		if c.Score() > out[idx].Score() {
			out[idx] = c
		}
	}
	return out
}

func less(rs []result.Result, key order.Key) func(i, j int) bool {
	switch key {
	case order.Date:
		return func(i, j int) bool {
			a, b := rs[i].Record(), rs[j].Record()
			if a.HasSigningDate() != b.HasSigningDate() {
				return a.HasSigningDate() // unknown dates sort last
			}
			if a.HasSigningDate() && !a.SigningDate().Equal(b.SigningDate()) {
				return a.SigningDate().After(b.SigningDate())
			}
			return rs[i].ID() < rs[j].ID()
		}
	case order.Value:
		return func(i, j int) bool {
			a, b := rs[i].Record(), rs[j].Record()
			if a.HasFinalValue() != b.HasFinalValue() {
				return a.HasFinalValue() // unknown values sort last
			}
			if a.HasFinalValue() && a.FinalValue() != b.FinalValue() {
				return a.FinalValue() > b.FinalValue()
			}
			return rs[i].ID() < rs[j].ID()
		}
	default: // order.Similarity
		return func(i, j int) bool {
			if rs[i].Score() != rs[j].Score() {
				return rs[i].Score() > rs[j].Score()
			}
			return rs[i].ID() < rs[j].ID()
		}
	}
}
