package trace

import "testing"

func TestNewEntry(t *testing.T) {
	e := NewEntry("o1", []string{"c3", "c1"})
	if e.OutputID() != "o1" {
		t.Errorf("unexpected output id %q", e.OutputID())
	}
	// Rank order is preserved, not sorted.
	if e.SourceIDs()[0] != "c3" || e.SourceIDs()[1] != "c1" {
		t.Errorf("unexpected source ids: %v", e.SourceIDs())
	}
}

func TestNewEntry_NilSourceIDs(t *testing.T) {
	e := NewEntry("o1", nil)
	if e.SourceIDs() == nil {
		t.Error("source ids must never be nil")
	}
	if len(e.SourceIDs()) != 0 {
		t.Errorf("expected empty list, got %v", e.SourceIDs())
	}
}

func TestNewEntry_CopiesSourceIDs(t *testing.T) {
	ids := []string{"c1"}
	e := NewEntry("o1", ids)

	ids[0] = "mutated"
	if e.SourceIDs()[0] != "c1" {
		t.Error("entry must copy source ids, not alias the caller's slice")
	}
}
