// Package generation orchestrates per-section text generation: retrieval,
// prompt construction, provider calls with retry, and deterministic
// reassembly of concurrently generated sections.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/glassbox/internal/domain"
	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
	"github.com/kailas-cloud/glassbox/internal/domain/section"
	"github.com/kailas-cloud/glassbox/internal/logger"
	"github.com/kailas-cloud/glassbox/internal/metrics"
	"github.com/kailas-cloud/glassbox/internal/usecase/retrieval"
)

// Defaults for orchestration knobs; overridden from config in main.
const (
	DefaultMaxConcurrent  = 4
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 8 * time.Second
)

// Service drives per-section generation over the full ordered section list.
type Service struct {
	retriever      Retriever
	gen            domain.Generator
	maxConcurrent  int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	limiter        *rate.Limiter
	newID          func() string
}

// New creates a generation orchestrator.
func New(retriever Retriever, gen domain.Generator) *Service {
	return &Service{
		retriever:      retriever,
		gen:            gen,
		maxConcurrent:  DefaultMaxConcurrent,
		maxAttempts:    DefaultMaxAttempts,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
		newID:          uuid.NewString,
	}
}

// WithConcurrency bounds the number of sections generated in parallel.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.maxConcurrent = n
	}
	return s
}

// WithRetry configures the per-call retry policy.
func (s *Service) WithRetry(maxAttempts int, initial, max time.Duration) *Service {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if initial > 0 {
		s.initialBackoff = initial
	}
	if max > 0 {
		s.maxBackoff = max
	}
	return s
}

// WithRateLimiter throttles provider calls across all in-flight sections.
func (s *Service) WithRateLimiter(l *rate.Limiter) *Service {
	s.limiter = l
	return s
}

// WithIDGenerator overrides output chunk id minting (tests).
func (s *Service) WithIDGenerator(newID func() string) *Service {
	s.newID = newID
	return s
}

// GenerateAll produces exactly one OutputChunk per section spec, in spec
// order. Sections run concurrently under a bounded worker limit; each task
// writes only to its own index-addressed slot, so reassembly needs no
// locking. A terminal failure on any section cancels the rest and fails the
// whole transaction: a document with missing traceability for one section is
// worse than no document.
func (s *Service) GenerateAll(
	ctx context.Context,
	idx retrieval.Querier,
	chunksByID map[string]domdoc.Chunk,
	specs []section.Spec,
) ([]domdoc.OutputChunk, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no section specs configured: %w", domain.ErrValidation)
	}

	slots := make([]domdoc.OutputChunk, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			out, err := s.generateSection(gctx, idx, chunksByID, spec)
			if err != nil {
				return fmt.Errorf("section %q: %w", spec.Key(), err)
			}
			slots[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return slots, nil
}

// generateSection runs retrieve → prompt → generate-with-retry for one section.
func (s *Service) generateSection(
	ctx context.Context,
	idx retrieval.Querier,
	chunksByID map[string]domdoc.Chunk,
	spec section.Spec,
) (domdoc.OutputChunk, error) {
	ids, err := s.retriever.Retrieve(ctx, idx, spec)
	if err != nil {
		return domdoc.OutputChunk{}, fmt.Errorf("retrieve: %w", err)
	}

	prompt := buildPrompt(spec, ids, chunksByID)

	res, err := s.generateWithRetry(ctx, spec.Key(), prompt)
	if err != nil {
		return domdoc.OutputChunk{}, err
	}

	// ids is carried verbatim: an empty retrieval result stays empty, it is
	// never coerced into a fabricated link.
	out, err := domdoc.NewOutputChunk(s.newID(), res.Text, ids)
	if err != nil {
		return domdoc.OutputChunk{}, fmt.Errorf("build output chunk: %w", err)
	}
	return out, nil
}

// generateWithRetry calls the provider with bounded exponential backoff.
// Only failures marked retryable are retried; retries are scoped to a single
// provider call, never to the whole transaction.
func (s *Service) generateWithRetry(
	ctx context.Context, sectionKey, prompt string,
) (domain.GenerationResult, error) {
	log := logger.FromContext(ctx)
	backoff := s.initialBackoff

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return domain.GenerationResult{}, fmt.Errorf("rate limiter: %w", err)
			}
		}

		res, err := s.gen.Generate(ctx, prompt)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !domain.IsRetryableGeneration(err) || attempt == s.maxAttempts {
			break
		}

		metrics.GenerationRetriesTotal.WithLabelValues(sectionKey).Inc()
		log.Warn("retrying generation call",
			zap.String("section", sectionKey),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return domain.GenerationResult{}, fmt.Errorf("generation canceled: %w", ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
	}

	if !errors.Is(lastErr, domain.ErrGenerationProvider) {
		lastErr = domain.TerminalGeneration(lastErr)
	}
	return domain.GenerationResult{}, fmt.Errorf("generation failed after %d attempt(s): %w", s.maxAttempts, lastErr)
}

// buildPrompt assembles the section prompt: the template followed by the
// retrieved source passages, each tagged with its chunk id so the model can
// cite them.
func buildPrompt(spec section.Spec, ids []string, chunksByID map[string]domdoc.Chunk) string {
	var b strings.Builder
	b.WriteString(spec.PromptTemplate())

	if len(ids) == 0 {
		b.WriteString("\n\nNo source passages were relevant to this section. ")
		b.WriteString("State that the source material does not cover it; do not invent content.")
		return b.String()
	}

	b.WriteString("\n\nSource passages:\n")
	for _, id := range ids {
		c := chunksByID[id]
		fmt.Fprintf(&b, "\n[%s]\n%s\n", id, c.Text())
	}
	return b.String()
}
