// Package trace defines the traceability map linking each generated output
// chunk back to the source chunks that supported it.
package trace

// Entry links one output chunk to its supporting source chunk ids, in
// retrieval rank order.
type Entry struct {
	outputID  string
	sourceIDs []string
}

// NewEntry creates a traceability map entry. A nil sourceIDs slice becomes an
// empty list: absence of support is recorded, never omitted.
func NewEntry(outputID string, sourceIDs []string) Entry {
	ids := make([]string, len(sourceIDs))
	copy(ids, sourceIDs)
	return Entry{outputID: outputID, sourceIDs: ids}
}

// OutputID returns the generated chunk id this entry describes.
func (e *Entry) OutputID() string { return e.outputID }

// SourceIDs returns the supporting source chunk ids. Never nil.
func (e *Entry) SourceIDs() []string { return e.sourceIDs }
