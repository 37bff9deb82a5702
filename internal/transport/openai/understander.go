package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/govscan/tendersearch/internal/domain"
)

// Understander implements the preprocessor's remote text-understanding call.
type Understander struct {
	chat *Chat
}

// NewUnderstander creates an understanding client over a shared chat client.
func NewUnderstander(chat *Chat) *Understander {
	return &Understander{chat: chat}
}

// understandResponse mirrors the constrained output schema of the call.
type understandResponse struct {
	Positive   string `json:"positive"`
	Negative   string `json:"negative"`
	Conditions []struct {
		Field string `json:"field"`
		Value string `json:"value"`
	} `json:"conditions"`
}

// Understand asks the service to split raw query text. A response that does
// not conform to the schema is a failure of this call, never a partial success.
func (u *Understander) Understand(ctx context.Context, raw string) (domain.Understanding, error) {
	body, err := u.chat.CompleteJSON(ctx, understandSystemPrompt, raw)
	if err != nil {
		return domain.Understanding{}, fmt.Errorf("understand query: %w", err)
	}

	var resp understandResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Understanding{}, fmt.Errorf("decode understanding: %w: %w", domain.ErrSchemaViolation, err)
	}

	out := domain.Understanding{
		Positive: resp.Positive,
		Negative: resp.Negative,
	}
	for _, c := range resp.Conditions {
		out.Conditions = append(out.Conditions, domain.RawCondition{Field: c.Field, Value: c.Value})
	}
	return out, nil
}
