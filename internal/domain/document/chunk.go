package document

import "fmt"

// Chunk is an addressable, ordered unit of a source document — the smallest
// traceable reference target.
type Chunk struct {
	id        string
	text      string
	position  int
	vector    []float32
	hardSplit bool
}

// NewChunk validates and creates a Chunk.
func NewChunk(id, text string, position int) (Chunk, error) {
	if id == "" {
		return Chunk{}, fmt.Errorf("chunk ID is required")
	}
	if text == "" {
		return Chunk{}, fmt.Errorf("chunk text is required")
	}
	if position < 0 {
		return Chunk{}, fmt.Errorf("chunk position must be >= 0, got %d", position)
	}
	return Chunk{id: id, text: text, position: position}, nil
}

// ReconstructChunk creates a Chunk without validation (storage hydration).
func ReconstructChunk(id, text string, position int, vector []float32, hardSplit bool) Chunk {
	return Chunk{id: id, text: text, position: position, vector: vector, hardSplit: hardSplit}
}

// ID returns the chunk identifier, unique within its owning document.
func (c *Chunk) ID() string { return c.id }

// Text returns the chunk text.
func (c *Chunk) Text() string { return c.text }

// Position returns the 0-based position in document order.
func (c *Chunk) Position() int { return c.position }

// Vector returns the embedding vector, nil until the chunk is embedded.
func (c *Chunk) Vector() []float32 { return c.vector }

// HardSplit reports whether the chunk was force-split mid-sentence because a
// single sentence exceeded the maximum chunk size.
func (c *Chunk) HardSplit() bool { return c.hardSplit }

// SetVector sets the embedding vector in place.
func (c *Chunk) SetVector(v []float32) { c.vector = v }

// MarkHardSplit flags the chunk as force-split.
func (c *Chunk) MarkHardSplit() { c.hardSplit = true }
