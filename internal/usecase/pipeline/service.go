// Package pipeline runs the traceability transaction: chunk the source,
// build the semantic index, generate every configured section, derive the
// traceability map and archive the result. The transaction is atomic: it
// either yields a complete source/generated/trace triple or fails with no
// partial output.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/glassbox/internal/domain"
	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
	"github.com/kailas-cloud/glassbox/internal/domain/section"
	domtrace "github.com/kailas-cloud/glassbox/internal/domain/trace"
	"github.com/kailas-cloud/glassbox/internal/logger"
	"github.com/kailas-cloud/glassbox/internal/usecase/trace"
)

// Result is the complete outcome of one transaction.
type Result struct {
	Source    domdoc.Source
	Generated domdoc.Generated
	Trace     []domtrace.Entry
}

// Service orchestrates the full transaction.
type Service struct {
	chunker        Chunker
	indexer        IndexBuilder
	generator      Generator
	archiver       Archiver
	specs          []section.Spec
	maxSourceBytes int
	timeout        time.Duration
	newID          func() string
}

// New creates the transaction pipeline.
func New(chunker Chunker, indexer IndexBuilder, generator Generator, archiver Archiver, specs []section.Spec) *Service {
	return &Service{
		chunker:   chunker,
		indexer:   indexer,
		generator: generator,
		archiver:  archiver,
		specs:     specs,
		newID:     uuid.NewString,
	}
}

// WithMaxSourceBytes rejects source documents above the given size.
func (s *Service) WithMaxSourceBytes(n int) *Service {
	s.maxSourceBytes = n
	return s
}

// WithTimeout bounds the whole transaction.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// WithIDGenerator overrides document id minting (tests).
func (s *Service) WithIDGenerator(newID func() string) *Service {
	s.newID = newID
	return s
}

// Process runs one transaction over the given source document. Validation
// failures are detected before any provider call is made.
func (s *Service) Process(ctx context.Context, title, content string) (Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.validate(title, content); err != nil {
		return Result{}, err
	}

	started := time.Now()

	chunks, err := s.chunker.Chunk(content)
	if err != nil {
		return Result{}, fmt.Errorf("chunk source: %w", err)
	}

	idx, err := s.indexer.Build(ctx, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("build index: %w", err)
	}

	src, err := domdoc.NewSource(s.newID(), title, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("build source document: %w", err)
	}

	// Downstream log lines (generation retries, archiving) carry the source id.
	ctx = logger.WithFields(ctx, zap.String("source_id", src.ID()))

	outChunks, err := s.generator.GenerateAll(ctx, idx, src.ChunksByID(), s.specs)
	if err != nil {
		return Result{}, err
	}

	gen, err := domdoc.NewGenerated(s.newID(), outChunks)
	if err != nil {
		return Result{}, fmt.Errorf("build generated document: %w", err)
	}

	entries := trace.Build(outChunks)

	if err := s.archiver.Save(ctx, src, gen, entries); err != nil {
		return Result{}, fmt.Errorf("archive transaction: %w", err)
	}

	logger.FromContext(ctx).Info("transaction complete",
		zap.String("generated_id", gen.ID()),
		zap.Int("source_chunks", len(chunks)),
		zap.Int("sections", len(s.specs)),
		zap.Duration("duration", time.Since(started)),
	)

	return Result{Source: src, Generated: gen, Trace: entries}, nil
}

// Fetch loads an archived transaction by source document id.
func (s *Service) Fetch(ctx context.Context, sourceID string) (Result, error) {
	if strings.TrimSpace(sourceID) == "" {
		return Result{}, fmt.Errorf("source document id is required: %w", domain.ErrValidation)
	}
	src, gen, entries, err := s.archiver.Get(ctx, sourceID)
	if err != nil {
		return Result{}, err
	}
	return Result{Source: src, Generated: gen, Trace: entries}, nil
}

func (s *Service) validate(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("document title is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("document content is required: %w", domain.ErrValidation)
	}
	if s.maxSourceBytes > 0 && len(content) > s.maxSourceBytes {
		return fmt.Errorf(
			"document content is %d bytes, limit %d: %w",
			len(content), s.maxSourceBytes, domain.ErrValidation,
		)
	}
	if len(s.specs) == 0 {
		return fmt.Errorf("no target sections configured: %w", domain.ErrValidation)
	}
	return nil
}
