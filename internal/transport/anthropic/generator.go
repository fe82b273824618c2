// Package anthropic provides a generation provider backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/kailas-cloud/glassbox/internal/domain"
	"github.com/kailas-cloud/glassbox/internal/metrics"
)

const defaultMaxTokens = 4096

// Generator is a text generation provider using the Anthropic Messages API.
type Generator struct {
	client      anthropic.Client
	model       string
	temperature float32
	maxTokens   int
	provider    string
	logger      *zap.Logger
}

// Config holds the generation provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Provider    string
	Logger      *zap.Logger
}

// NewGenerator creates an Anthropic generation provider.
func NewGenerator(cfg *Config) *Generator {
	// Retry policy lives in the orchestrator; the SDK must not retry on its own.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Generator{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// Generate implements domain.Generator. Failures are classified retryable
// (timeouts, 429, 5xx, overloaded) or terminal (invalid prompt, auth).
func (g *Generator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(g.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if g.temperature > 0 {
		params.Temperature = anthropic.Float(float64(g.temperature))
	}

	start := time.Now()

	resp, err := g.client.Messages.New(ctx, params)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return domain.GenerationResult{}, classifyError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return domain.GenerationResult{}, domain.RetryableGeneration(
			fmt.Errorf("empty message response: %w", domain.ErrGenerationProvider),
		)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())

	input := int(resp.Usage.InputTokens)
	output := int(resp.Usage.OutputTokens)
	if input+output > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(input))
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").Add(float64(output))
	}

	return domain.GenerationResult{
		Text:             text.String(),
		PromptTokens:     input,
		CompletionTokens: output,
		TotalTokens:      input + output,
	}, nil
}

// classifyError maps an Anthropic API failure to retryable or terminal.
func classifyError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		// Network failure or timeout — no HTTP response at all.
		return domain.RetryableGeneration(
			fmt.Errorf("generation request failed: %v: %w", err, domain.ErrGenerationProvider),
		)
	}

	status := apiErr.StatusCode
	wrapped := fmt.Errorf("generation API error %d: %v: %w", status, apiErr, domain.ErrGenerationProvider)

	switch {
	case status == http.StatusTooManyRequests:
		return domain.RetryableGeneration(fmt.Errorf("%w: %w", domain.ErrRateLimited, wrapped))
	case status >= http.StatusInternalServerError:
		// Includes 529 overloaded_error.
		return domain.RetryableGeneration(wrapped)
	default:
		return wrapped
	}
}
