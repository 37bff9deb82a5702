package preprocess

import (
	"strings"

	"github.com/govscan/tendersearch/internal/domain/search/terms"
)

// NegationDelimiter separates wanted from excluded terms in raw query text.
const NegationDelimiter = " -- "

// LexicalSplit splits raw text on the reserved negation delimiter. Everything
// before the first delimiter is positive, everything after is negative; no
// structured conditions are produced. When the positive side comes out empty,
// the remaining text with the delimiter stripped is used so positive terms are
// never empty and the marker does not leak into them.
func LexicalSplit(raw string) (terms.Split, error) {
	positive, negative, _ := strings.Cut(raw, NegationDelimiter)

	positive = strings.TrimSpace(positive)
	if positive == "" {
		positive = strings.TrimSpace(strings.ReplaceAll(raw, NegationDelimiter, " "))
		negative = ""
		if positive == "" {
			positive = strings.TrimSpace(raw)
		}
	}

	return terms.NewSplit(positive, negative, nil)
}
