package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kaptinlin/jsonrepair"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/govscan/tendersearch/internal/domain"
)

// Chat issues JSON-mode chat completions behind a circuit breaker. It backs
// both the text-understanding and the judgment calls.
type Chat struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// ChatConfig holds the chat provider settings.
type ChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	BreakerTripRatio   float64

	Logger *zap.Logger
}

// NewChat creates a JSON-mode chat client.
func NewChat(cfg *ChatConfig) *Chat {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger

	st := gobreaker.Settings{
		Name:        "llm-" + cfg.Model,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.BreakerTripRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Chat{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker(st),
		logger:  logger,
	}
}

// Model returns the configured model name.
func (c *Chat) Model() string { return c.model }

// CompleteJSON sends a system+user prompt pair and returns the response body
// as valid JSON bytes. Malformed JSON is repaired once; if it still does not
// parse, the call fails with a schema violation. An open breaker or transport
// failure surfaces as collaborator unavailability.
func (c *Chat) CompleteJSON(ctx context.Context, system, user string) ([]byte, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       c.model,
			Temperature: 0,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no completion choices")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("llm breaker open: %w", domain.ErrCollaboratorUnavailable)
		}
		return nil, fmt.Errorf("chat completion: %w: %w", domain.ErrCollaboratorUnavailable, err)
	}

	content, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected completion payload: %w", domain.ErrSchemaViolation)
	}

	if json.Valid([]byte(content)) {
		return []byte(content), nil
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil || !json.Valid([]byte(repaired)) {
		c.logger.Warn("llm returned unrepairable JSON", zap.String("model", c.model))
		return nil, fmt.Errorf("llm response is not valid JSON: %w", domain.ErrSchemaViolation)
	}

	return []byte(repaired), nil
}
