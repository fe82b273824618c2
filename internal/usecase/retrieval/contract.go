package retrieval

import (
	"context"

	"github.com/kailas-cloud/glassbox/internal/domain"
	"github.com/kailas-cloud/glassbox/internal/usecase/index"
)

// Embedder vectorizes the section query text. Satisfied by the
// query-instruction embedder chain from the composition root.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Querier answers nearest-neighbor queries over one transaction's chunk set.
type Querier interface {
	Query(vector []float32, k int, threshold float64) []index.Hit
}
