package pipeline

import (
	"context"

	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
	"github.com/kailas-cloud/glassbox/internal/domain/section"
	domtrace "github.com/kailas-cloud/glassbox/internal/domain/trace"
	"github.com/kailas-cloud/glassbox/internal/usecase/index"
	"github.com/kailas-cloud/glassbox/internal/usecase/retrieval"
)

// Chunker splits raw source text into ordered chunks.
type Chunker interface {
	Chunk(rawText string) ([]domdoc.Chunk, error)
}

// IndexBuilder embeds chunks and assembles the in-memory semantic index.
type IndexBuilder interface {
	Build(ctx context.Context, chunks []domdoc.Chunk) (*index.Index, error)
}

// Generator produces one output chunk per section spec, in spec order.
type Generator interface {
	GenerateAll(
		ctx context.Context,
		idx retrieval.Querier,
		chunksByID map[string]domdoc.Chunk,
		specs []section.Spec,
	) ([]domdoc.OutputChunk, error)
}

// Archiver persists and loads completed transactions.
type Archiver interface {
	Save(ctx context.Context, src domdoc.Source, gen domdoc.Generated, entries []domtrace.Entry) error
	Get(ctx context.Context, sourceID string) (domdoc.Source, domdoc.Generated, []domtrace.Entry, error)
}
