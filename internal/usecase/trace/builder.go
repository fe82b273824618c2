// Package trace assembles the traceability map from generated output chunks.
package trace

import (
	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
	domtrace "github.com/kailas-cloud/glassbox/internal/domain/trace"
)

// Build derives one traceability entry per output chunk, preserving section
// order. The map is a pure projection of the output chunks: it adds no links
// and drops none, so an output with empty support yields an entry with an
// empty source list.
func Build(chunks []domdoc.OutputChunk) []domtrace.Entry {
	entries := make([]domtrace.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = domtrace.NewEntry(c.ID(), c.SourceChunkIDs())
	}
	return entries
}
