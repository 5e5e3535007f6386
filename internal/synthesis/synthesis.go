// Package synthesis produces the strategic report from structured analysis
// input by delegating to an OpenAI-compatible chat completion endpoint.
package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/gaslens/gaslens/analysis"
	"github.com/gaslens/gaslens/pkg/flow"
	"github.com/gaslens/gaslens/pkg/formatting"
)

type client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a synthesizer backed by the configured reasoning service.
func New(cfg *Config, logger *slog.Logger) (analysis.Synthesizer, error) {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &client{
		api:     openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.TimeoutDuration(),
		logger:  logger.With("system", "synthesis"),
	}, nil
}

func (c *client) Synthesize(ctx context.Context, input analysis.SynthesisInput) (*analysis.SynthesisReport, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return nil, flow.Fail(flow.KindPermanent,
			fmt.Errorf("%w: encode input: %w", analysis.ErrSynthesis, err))
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: synthesisInstructions},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, c.requestError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, flow.Fail(flow.KindTransient,
			fmt.Errorf("%w: completion returned no choices", analysis.ErrSynthesis))
	}

	content := resp.Choices[0].Message.Content
	report, err := formatting.Parse[analysis.SynthesisReport](content)
	if err != nil {
		c.logger.Warn("synthesis response unparseable", "finish_reason", resp.Choices[0].FinishReason)
		return nil, flow.Fail(flow.KindInvalidData,
			fmt.Errorf("%w: %w", analysis.ErrSynthesis, err))
	}

	report.GeneratedAt = time.Now()
	return &report, nil
}

// requestError classifies completion failures: throttling, server faults, and
// expired deadlines warrant another attempt; rejected credentials or requests
// do not.
func (c *client) requestError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return flow.Fail(flow.KindTimeout, fmt.Errorf("%w: %w", analysis.ErrSynthesis, err))
	}
	if errors.Is(err, context.Canceled) {
		return flow.Fail(flow.KindCancelled, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		kind := flow.KindPermanent
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			kind = flow.KindTransient
		}
		return flow.Fail(kind, fmt.Errorf("%w: %w", analysis.ErrSynthesis, err))
	}

	return flow.Fail(flow.KindTransient, fmt.Errorf("%w: %w", analysis.ErrSynthesis, err))
}
