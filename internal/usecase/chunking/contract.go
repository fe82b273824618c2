package chunking

// Strategy detects structural boundaries in raw source text and splits it
// into ordered units (headings, paragraphs). Chunk sizing is applied on top
// of the units by the service, so future source formats only need a new
// Strategy, not a new chunker.
type Strategy interface {
	Split(text string) []string
}
