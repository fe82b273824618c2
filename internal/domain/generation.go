package domain

import (
	"context"
	"errors"
	"fmt"
)

// Generator is the text generation contract between layers.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// GenerationResult carries the generated text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// retryableError marks a generation failure as transient (timeout,
// 5xx-equivalent, rate limit). Terminal failures are left unmarked.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return "retryable: " + e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// RetryableGeneration wraps a provider error as retryable. The error still
// unwraps to ErrGenerationProvider for transport mapping.
func RetryableGeneration(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryableGeneration reports whether a generation error may be retried.
func IsRetryableGeneration(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// TerminalGeneration wraps a provider error as terminal for a section.
func TerminalGeneration(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrGenerationProvider, err)
}
