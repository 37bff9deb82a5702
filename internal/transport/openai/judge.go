package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/govscan/tendersearch/internal/domain"
	"github.com/govscan/tendersearch/internal/metrics"
)

// Judge implements the relevance filter's remote judgment call.
type Judge struct {
	chat *Chat
}

// NewJudge creates a judgment client over a shared chat client.
func NewJudge(chat *Chat) *Judge {
	return &Judge{chat: chat}
}

// judgeResponse mirrors the judgment output schema.
type judgeResponse struct {
	Accept     bool    `json:"accept"`
	Confidence float64 `json:"confidence"`
}

// Judge asks whether the candidate genuinely satisfies the query intent.
// strict selects the harsher prompt used by the restrictive level.
func (j *Judge) Judge(ctx context.Context, queryText, candidate string, strict bool) (domain.Judgment, error) {
	system := judgeSystemPromptFlexible
	if strict {
		system = judgeSystemPromptStrict
	}

	user := fmt.Sprintf("Search intent:\n%s\n\nProcurement notice:\n%s", queryText, candidate)

	start := time.Now()

	body, err := j.chat.CompleteJSON(ctx, system, user)
	if err != nil {
		metrics.JudgmentRequestsTotal.WithLabelValues(j.chat.Model(), "error").Inc()
		return domain.Judgment{}, fmt.Errorf("judge candidate: %w", err)
	}

	var resp judgeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.JudgmentRequestsTotal.WithLabelValues(j.chat.Model(), "error").Inc()
		return domain.Judgment{}, fmt.Errorf("decode judgment: %w: %w", domain.ErrSchemaViolation, err)
	}

	if resp.Confidence < 0 || resp.Confidence > 1 {
		metrics.JudgmentRequestsTotal.WithLabelValues(j.chat.Model(), "error").Inc()
		return domain.Judgment{}, fmt.Errorf(
			"judgment confidence %g outside [0,1]: %w", resp.Confidence, domain.ErrSchemaViolation,
		)
	}

	metrics.JudgmentRequestsTotal.WithLabelValues(j.chat.Model(), "success").Inc()
	metrics.JudgmentRequestDuration.WithLabelValues(j.chat.Model()).Observe(time.Since(start).Seconds())

	return domain.Judgment{Accept: resp.Accept, Confidence: resp.Confidence}, nil
}
