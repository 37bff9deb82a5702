package preprocess

import (
	"context"

	"github.com/govscan/tendersearch/internal/domain"
)

// Understander asks the remote text-understanding service to split raw query
// text. The returned proposal is unvalidated.
type Understander interface {
	Understand(ctx context.Context, raw string) (domain.Understanding, error)
}
