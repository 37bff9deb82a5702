package search

import (
	"context"
	"testing"

	"github.com/govscan/tendersearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchKNNFn  func(ctx context.Context, q *db.VectorQuery) (*db.SearchResult, error)
	searchTextFn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.VectorQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "tender:"), ms
}

func noticeFields(desc string) map[string]string {
	return map[string]string{
		fieldDescription:  desc,
		fieldOrganization: "City of Springfield",
		fieldRegion:       "midwest",
		fieldCategoryID:   "cat-7",
		fieldSigningDate:  "1700000000",
		fieldFinalValue:   "125000.50",
		fieldExpired:      "0",
	}
}
