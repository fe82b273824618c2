// Package archive persists completed traceability transactions as JSON
// records keyed by source document id.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/glassbox/internal/db"
	"github.com/kailas-cloud/glassbox/internal/domain"
	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
	domtrace "github.com/kailas-cloud/glassbox/internal/domain/trace"
)

// store is the consumer interface for archived transactions (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo implements usecase/pipeline.Archiver.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates an archive repository. prefix namespaces all keys.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix, now: time.Now}
}

// WithClock overrides the archive timestamp source (tests).
func (r *Repo) WithClock(now func() time.Time) *Repo {
	r.now = now
	return r
}

// Save persists a completed transaction. Writes are create-only: an existing
// record under the same source id is never overwritten.
func (r *Repo) Save(ctx context.Context, src domdoc.Source, gen domdoc.Generated, entries []domtrace.Entry) error {
	key := r.key(src.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w: %w", key, domain.ErrPersistence, err)
	}
	if exists {
		return fmt.Errorf("archive record %s: %w", src.ID(), domain.ErrAlreadyExists)
	}

	data, err := json.Marshal(buildRecord(src, gen, entries, r.now()))
	if err != nil {
		return fmt.Errorf("marshal archive record: %w: %w", domain.ErrPersistence, err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w: %w", key, domain.ErrPersistence, err)
	}
	return nil
}

// Get returns an archived transaction by source document id.
func (r *Repo) Get(ctx context.Context, sourceID string) (domdoc.Source, domdoc.Generated, []domtrace.Entry, error) {
	key := r.key(sourceID)

	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Source{}, domdoc.Generated{}, nil,
				fmt.Errorf("archive record %s: %w", sourceID, domain.ErrNotFound)
		}
		return domdoc.Source{}, domdoc.Generated{}, nil,
			fmt.Errorf("json.get %s: %w: %w", key, domain.ErrPersistence, err)
	}

	// JSON.GET with "$" returns an array of matches.
	var recs []record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return domdoc.Source{}, domdoc.Generated{}, nil,
			fmt.Errorf("unmarshal archive record %s: %w: %w", sourceID, domain.ErrPersistence, err)
	}
	if len(recs) == 0 {
		return domdoc.Source{}, domdoc.Generated{}, nil,
			fmt.Errorf("archive record %s: %w", sourceID, domain.ErrNotFound)
	}

	src, gen, entries := parseRecord(recs[0])
	return src, gen, entries, nil
}

func (r *Repo) key(sourceID string) string {
	return r.prefix + "archive:" + sourceID
}
