// Package retrieval ranks source chunks relevant to a target section.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/glassbox/internal/domain"
	"github.com/kailas-cloud/glassbox/internal/domain/section"
	"github.com/kailas-cloud/glassbox/internal/logger"
)

// Service retrieves the source chunks most relevant to a section.
type Service struct {
	embed Embedder
}

// New creates a retrieval service.
func New(embed Embedder) *Service {
	return &Service{embed: embed}
}

// Retrieve embeds the section's query text and returns the ids of chunks
// clearing the section's similarity threshold, in rank order, capped at the
// section's chunk budget. An empty result is a valid outcome: the section
// simply has no supporting context.
func (s *Service) Retrieve(ctx context.Context, idx Querier, spec section.Spec) ([]string, error) {
	embResult, err := s.embed.Embed(ctx, spec.QueryText())
	if err != nil {
		return nil, fmt.Errorf("embed section query %q: %w: %w", spec.Key(), domain.ErrEmbeddingProvider, err)
	}

	hits := idx.Query(embResult.Embedding, spec.MaxChunks(), spec.SimilarityThreshold())

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}

	logger.FromContext(ctx).Debug("section retrieval",
		zap.String("section", spec.Key()),
		zap.Int("hits", len(ids)),
		zap.Float64("threshold", spec.SimilarityThreshold()),
	)

	return ids, nil
}
