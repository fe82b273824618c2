package document

import "fmt"

// OutputChunk is one generated passage, annotated with the source chunk ids
// that supported it. SourceChunkIDs may be empty (insufficient context) but is
// never nil.
type OutputChunk struct {
	id             string
	text           string
	sourceChunkIDs []string
}

// NewOutputChunk validates and creates an OutputChunk.
func NewOutputChunk(id, text string, sourceChunkIDs []string) (OutputChunk, error) {
	if id == "" {
		return OutputChunk{}, fmt.Errorf("output chunk ID is required")
	}
	if text == "" {
		return OutputChunk{}, fmt.Errorf("output chunk text is required")
	}
	ids := make([]string, len(sourceChunkIDs))
	copy(ids, sourceChunkIDs)
	return OutputChunk{id: id, text: text, sourceChunkIDs: ids}, nil
}

// ReconstructOutputChunk creates an OutputChunk without validation.
func ReconstructOutputChunk(id, text string, sourceChunkIDs []string) OutputChunk {
	if sourceChunkIDs == nil {
		sourceChunkIDs = []string{}
	}
	return OutputChunk{id: id, text: text, sourceChunkIDs: sourceChunkIDs}
}

// ID returns the output chunk identifier.
func (o *OutputChunk) ID() string { return o.id }

// Text returns the generated text.
func (o *OutputChunk) Text() string { return o.text }

// SourceChunkIDs returns the supporting source chunk ids in retrieval rank
// order. Empty when no source chunk cleared the section's threshold.
func (o *OutputChunk) SourceChunkIDs() []string { return o.sourceChunkIDs }

// Generated is the generated document aggregate: one OutputChunk per target
// section, in section order.
type Generated struct {
	id     string
	chunks []OutputChunk
}

// NewGenerated validates and creates a Generated document.
func NewGenerated(id string, chunks []OutputChunk) (Generated, error) {
	if id == "" {
		return Generated{}, fmt.Errorf("generated document ID is required")
	}
	if len(chunks) == 0 {
		return Generated{}, fmt.Errorf("generated document requires at least one chunk")
	}
	seen := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		if seen[c.ID()] {
			return Generated{}, fmt.Errorf("duplicate output chunk ID %q", c.ID())
		}
		seen[c.ID()] = true
	}
	return Generated{id: id, chunks: chunks}, nil
}

// ReconstructGenerated creates a Generated document without validation.
func ReconstructGenerated(id string, chunks []OutputChunk) Generated {
	return Generated{id: id, chunks: chunks}
}

// ID returns the document identifier.
func (g *Generated) ID() string { return g.id }

// Chunks returns the output chunks in section order.
func (g *Generated) Chunks() []OutputChunk { return g.chunks }
