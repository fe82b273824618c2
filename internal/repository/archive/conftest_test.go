package archive

import (
	"context"
	"testing"
	"time"

	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
	domtrace "github.com/kailas-cloud/glassbox/internal/domain/trace"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn func(ctx context.Context, key string, paths ...string) ([]byte, error)
	existsFn  func(ctx context.Context, key string) (bool, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return []byte("[]"), nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, "glassbox:").WithClock(func() time.Time {
		return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	})
	return repo, ms
}

func testTransaction(t *testing.T) (domdoc.Source, domdoc.Generated, []domtrace.Entry) {
	t.Helper()
	chunks := []domdoc.Chunk{
		domdoc.ReconstructChunk("c1", "First chunk.", 0, nil, false),
		domdoc.ReconstructChunk("c2", "Second chunk.", 1, nil, true),
	}
	src, err := domdoc.NewSource("src-1", "Design Notes", chunks)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	out := []domdoc.OutputChunk{
		domdoc.ReconstructOutputChunk("out-1", "Summary text.", []string{"c2", "c1"}),
		domdoc.ReconstructOutputChunk("out-2", "Unsupported section.", nil),
	}
	gen, err := domdoc.NewGenerated("gen-1", out)
	if err != nil {
		t.Fatalf("NewGenerated: %v", err)
	}

	entries := []domtrace.Entry{
		domtrace.NewEntry("out-1", []string{"c2", "c1"}),
		domtrace.NewEntry("out-2", nil),
	}
	return src, gen, entries
}
