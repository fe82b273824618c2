package generation

import (
	"context"

	"github.com/kailas-cloud/glassbox/internal/domain/section"
	"github.com/kailas-cloud/glassbox/internal/usecase/retrieval"
)

// Retriever ranks source chunks relevant to a section.
type Retriever interface {
	Retrieve(ctx context.Context, idx retrieval.Querier, spec section.Spec) ([]string, error)
}
