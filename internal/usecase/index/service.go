package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glassbox/internal/domain"
	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
	"github.com/kailas-cloud/glassbox/internal/logger"
)

// Service builds semantic indexes from chunk sets.
type Service struct {
	embed Embedder
}

// New creates an index service.
func New(embed Embedder) *Service {
	return &Service{embed: embed}
}

// Build embeds every chunk and assembles the index. One API call when the
// embedder supports batching, O(n) calls otherwise. Any embedding failure
// aborts the whole build: retrieval over a partial index would silently bias
// results.
func (s *Service) Build(ctx context.Context, chunks []domdoc.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to index: %w", domain.ErrValidation)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text()
	}

	var res domain.BatchEmbeddingResult
	var err error
	if be, ok := s.embed.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
	} else {
		res, err = domain.BatchFallback(ctx, s.embed, texts)
	}
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w: %w", domain.ErrEmbeddingProvider, err)
	}
	if len(res.Embeddings) != len(chunks) {
		return nil, fmt.Errorf(
			"embedder returned %d vectors for %d chunks: %w",
			len(res.Embeddings), len(chunks), domain.ErrEmbeddingProvider,
		)
	}

	entries := make([]entry, len(chunks))
	for i := range chunks {
		chunks[i].SetVector(res.Embeddings[i])
		entries[i] = entry{
			id:       chunks[i].ID(),
			position: chunks[i].Position(),
			vector:   res.Embeddings[i],
		}
	}

	logger.FromContext(ctx).Debug("semantic index built",
		zap.Int("chunks", len(chunks)),
		zap.Int("total_tokens", res.TotalTokens),
	)

	return &Index{entries: entries}, nil
}
