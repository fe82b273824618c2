package document

import "fmt"

// Source is the chunked source document aggregate. Chunk order, once
// established, is never mutated: it is the basis for reconstructing the
// original document in the viewer.
type Source struct {
	id     string
	title  string
	chunks []Chunk
}

// NewSource validates and creates a Source document.
// Chunk ids must be unique and positions must be 0-based and monotonic.
func NewSource(id, title string, chunks []Chunk) (Source, error) {
	if id == "" {
		return Source{}, fmt.Errorf("source document ID is required")
	}
	if title == "" {
		return Source{}, fmt.Errorf("source document title is required")
	}
	if len(chunks) == 0 {
		return Source{}, fmt.Errorf("source document requires at least one chunk")
	}

	seen := make(map[string]bool, len(chunks))
	for i, c := range chunks {
		if seen[c.ID()] {
			return Source{}, fmt.Errorf("duplicate chunk ID %q", c.ID())
		}
		seen[c.ID()] = true
		if c.Position() != i {
			return Source{}, fmt.Errorf("chunk %q at index %d has position %d", c.ID(), i, c.Position())
		}
	}

	return Source{id: id, title: title, chunks: chunks}, nil
}

// ReconstructSource creates a Source without validation (storage hydration).
func ReconstructSource(id, title string, chunks []Chunk) Source {
	return Source{id: id, title: title, chunks: chunks}
}

// ID returns the document identifier.
func (s *Source) ID() string { return s.id }

// Title returns the document title.
func (s *Source) Title() string { return s.title }

// Chunks returns the chunks in position order.
func (s *Source) Chunks() []Chunk { return s.chunks }

// ChunksByID returns a lookup table from chunk id to chunk.
func (s *Source) ChunksByID() map[string]Chunk {
	m := make(map[string]Chunk, len(s.chunks))
	for _, c := range s.chunks {
		m[c.ID()] = c
	}
	return m
}
