package index

import (
	"context"

	"github.com/kailas-cloud/glassbox/internal/domain"
)

// Embedder vectorizes chunk text. Satisfied by the document-instruction
// embedder chain from the composition root.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
