package archive

import (
	"time"

	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
	domtrace "github.com/kailas-cloud/glassbox/internal/domain/trace"
)

// record is the persisted JSON shape of a completed transaction. Embedding
// vectors are derived data and are deliberately not stored.
type record struct {
	Source     sourceDTO    `json:"source_document"`
	Generated  generatedDTO `json:"generated_document"`
	Trace      []entryDTO   `json:"traceability_map"`
	ArchivedAt time.Time    `json:"archived_at"`
}

type sourceDTO struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Chunks []chunkDTO `json:"chunks"`
}

type chunkDTO struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Position  int    `json:"position"`
	HardSplit bool   `json:"hard_split,omitempty"`
}

type generatedDTO struct {
	ID     string           `json:"id"`
	Chunks []outputChunkDTO `json:"chunks"`
}

type outputChunkDTO struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	SourceChunkIDs []string `json:"source_chunk_ids"`
}

type entryDTO struct {
	OutputID  string   `json:"output_id"`
	SourceIDs []string `json:"source_ids"`
}

func buildRecord(src domdoc.Source, gen domdoc.Generated, entries []domtrace.Entry, now time.Time) record {
	srcChunks := make([]chunkDTO, len(src.Chunks()))
	for i, c := range src.Chunks() {
		srcChunks[i] = chunkDTO{ID: c.ID(), Text: c.Text(), Position: c.Position(), HardSplit: c.HardSplit()}
	}

	genChunks := make([]outputChunkDTO, len(gen.Chunks()))
	for i, c := range gen.Chunks() {
		genChunks[i] = outputChunkDTO{ID: c.ID(), Text: c.Text(), SourceChunkIDs: c.SourceChunkIDs()}
	}

	traceDTO := make([]entryDTO, len(entries))
	for i, e := range entries {
		traceDTO[i] = entryDTO{OutputID: e.OutputID(), SourceIDs: e.SourceIDs()}
	}

	return record{
		Source:     sourceDTO{ID: src.ID(), Title: src.Title(), Chunks: srcChunks},
		Generated:  generatedDTO{ID: gen.ID(), Chunks: genChunks},
		Trace:      traceDTO,
		ArchivedAt: now.UTC(),
	}
}

func parseRecord(rec record) (domdoc.Source, domdoc.Generated, []domtrace.Entry) {
	chunks := make([]domdoc.Chunk, len(rec.Source.Chunks))
	for i, c := range rec.Source.Chunks {
		chunks[i] = domdoc.ReconstructChunk(c.ID, c.Text, c.Position, nil, c.HardSplit)
	}
	src := domdoc.ReconstructSource(rec.Source.ID, rec.Source.Title, chunks)

	outChunks := make([]domdoc.OutputChunk, len(rec.Generated.Chunks))
	for i, c := range rec.Generated.Chunks {
		outChunks[i] = domdoc.ReconstructOutputChunk(c.ID, c.Text, c.SourceChunkIDs)
	}
	gen := domdoc.ReconstructGenerated(rec.Generated.ID, outChunks)

	entries := make([]domtrace.Entry, len(rec.Trace))
	for i, e := range rec.Trace {
		entries[i] = domtrace.NewEntry(e.OutputID, e.SourceIDs)
	}

	return src, gen, entries
}
