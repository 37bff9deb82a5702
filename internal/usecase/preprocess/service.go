// Package preprocess splits raw query text into positive terms, excluded
// terms, and structured conditions. A remote text-understanding call is one
// implementation of the split; a purely lexical delimiter split is the
// fallback whenever the remote result is unavailable or untrusted.
package preprocess

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/govscan/tendersearch/internal/domain"
	"github.com/govscan/tendersearch/internal/domain/search/terms"
	"github.com/govscan/tendersearch/internal/logger"
)

// Service is the query preprocessor.
type Service struct {
	understander Understander // nil: lexical splitting only
}

// New creates a preprocessor. Pass a nil understander to disable the
// intelligent mode entirely.
func New(understander Understander) *Service {
	return &Service{understander: understander}
}

// Preprocess splits raw query text. It never fails: any problem with the
// intelligent mode degrades to the lexical split, with a diagnostic note for
// every degradation taken.
func (s *Service) Preprocess(ctx context.Context, raw string) (terms.Split, []string) {
	log := logger.FromContext(ctx)

	lexical, err := LexicalSplit(raw)
	if err != nil {
		// Raw text is validated non-empty upstream, so this only guards
		// against future invariant changes.
		log.Warn("lexical split failed", zap.Error(err))
	}

	if s.understander == nil {
		return lexical, nil
	}

	understanding, err := s.understander.Understand(ctx, raw)
	if err != nil {
		log.Warn("text understanding unavailable, using lexical split", zap.Error(err))
		return lexical, []string{"intelligent preprocessing degraded to lexical split"}
	}

	if rejected, reason := rejectUnderstanding(understanding); rejected {
		log.Warn("text understanding result rejected, using lexical split", zap.String("reason", reason))
		return lexical, []string{"intelligent preprocessing result rejected: " + reason}
	}

	positive := strings.TrimSpace(understanding.Positive)
	if positive == "" {
		positive = lexical.Positive()
	}

	conditions := make([]terms.Condition, 0, len(understanding.Conditions))
	for _, rc := range understanding.Conditions {
		cond, err := terms.Coerce(rc.Field, rc.Value)
		if err != nil {
			// A single bad condition is dropped, not propagated as a failure.
			log.Warn("dropping condition from understanding",
				zap.String("field", rc.Field), zap.String("value", rc.Value), zap.Error(err))
			continue
		}
		conditions = append(conditions, cond)
	}

	split, err := terms.NewSplit(positive, understanding.Negative, conditions)
	if err != nil {
		log.Warn("understanding split invalid, using lexical split", zap.Error(err))
		return lexical, []string{"intelligent preprocessing yielded invalid split"}
	}

	return split, nil
}

// rejectUnderstanding runs the safety check over the raw understanding before
// any coercion: a condition value that looks like an injected query fragment
// poisons the whole result.
func rejectUnderstanding(u domain.Understanding) (bool, string) {
	for _, rc := range u.Conditions {
		if strings.Contains(rc.Value, "*") {
			return true, "wildcard marker in condition value"
		}
		if strings.Contains(rc.Value, "|") {
			return true, "disjunction in condition value"
		}
		if strings.Contains(rc.Value, "@") && terms.Field(rc.Field).IsText() {
			return true, "field reference in condition value"
		}
	}
	return false, ""
}
