package trace

import (
	"testing"

	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
)

func TestBuild_OneEntryPerChunkInOrder(t *testing.T) {
	chunks := []domdoc.OutputChunk{
		domdoc.ReconstructOutputChunk("out-1", "intro", []string{"s3", "s1"}),
		domdoc.ReconstructOutputChunk("out-2", "body", []string{"s2"}),
		domdoc.ReconstructOutputChunk("out-3", "appendix", nil),
	}

	entries := Build(chunks)

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].OutputID() != "out-1" || entries[1].OutputID() != "out-2" || entries[2].OutputID() != "out-3" {
		t.Error("entries must preserve chunk order")
	}
	if got := entries[0].SourceIDs(); len(got) != 2 || got[0] != "s3" || got[1] != "s1" {
		t.Errorf("entry 0 source ids: got %v, want [s3 s1]", got)
	}
}

func TestBuild_EmptySupportRecordedNotOmitted(t *testing.T) {
	entries := Build([]domdoc.OutputChunk{
		domdoc.ReconstructOutputChunk("out-1", "text", nil),
	})

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].SourceIDs() == nil {
		t.Fatal("source ids must be empty, not nil")
	}
	if len(entries[0].SourceIDs()) != 0 {
		t.Fatalf("expected empty source ids, got %v", entries[0].SourceIDs())
	}
}

func TestBuild_NoChunks(t *testing.T) {
	if entries := Build(nil); len(entries) != 0 {
		t.Fatalf("expected empty map, got %v", entries)
	}
}
