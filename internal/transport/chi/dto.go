package chi

import (
	"time"

	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
	domtrace "github.com/kailas-cloud/glassbox/internal/domain/trace"
	"github.com/kailas-cloud/glassbox/internal/usecase/pipeline"
)

// ErrorCode enumerates machine-readable API error codes.
type ErrorCode string

const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeNotFound           ErrorCode = "not_found"
	CodeAlreadyExists      ErrorCode = "already_exists"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeEmbeddingProvider  ErrorCode = "embedding_provider_error"
	CodeGenerationProvider ErrorCode = "generation_provider_error"
	CodePersistenceError   ErrorCode = "persistence_error"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ProcessRequest is the POST /v1/documents payload.
type ProcessRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// TransactionResponse is the complete transaction result payload.
type TransactionResponse struct {
	SourceDocument    SourceDocument    `json:"source_document"`
	GeneratedDocument GeneratedDocument `json:"generated_document"`
	TraceabilityMap   []TraceEntry      `json:"traceability_map"`
}

// SourceDocument is the chunked source in the API shape.
type SourceDocument struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Chunks []SourceChunk `json:"chunks"`
}

// SourceChunk is one addressable source chunk.
type SourceChunk struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Position  int    `json:"position"`
	HardSplit bool   `json:"hard_split,omitempty"`
}

// GeneratedDocument is the generated document in the API shape.
type GeneratedDocument struct {
	ID     string           `json:"id"`
	Chunks []GeneratedChunk `json:"chunks"`
}

// GeneratedChunk is one generated section with its supporting source ids.
type GeneratedChunk struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	SourceChunkIDs []string `json:"source_chunk_ids"`
}

// TraceEntry links one generated chunk to its source chunks.
type TraceEntry struct {
	OutputID  string   `json:"output_id"`
	SourceIDs []string `json:"source_ids"`
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
	Time    time.Time         `json:"time"`
}

func transactionToResponse(res pipeline.Result) TransactionResponse {
	return TransactionResponse{
		SourceDocument:    sourceToResponse(res.Source),
		GeneratedDocument: generatedToResponse(res.Generated),
		TraceabilityMap:   traceToResponse(res.Trace),
	}
}

func sourceToResponse(src domdoc.Source) SourceDocument {
	chunks := make([]SourceChunk, len(src.Chunks()))
	for i, c := range src.Chunks() {
		chunks[i] = SourceChunk{ID: c.ID(), Text: c.Text(), Position: c.Position(), HardSplit: c.HardSplit()}
	}
	return SourceDocument{ID: src.ID(), Title: src.Title(), Chunks: chunks}
}

func generatedToResponse(gen domdoc.Generated) GeneratedDocument {
	chunks := make([]GeneratedChunk, len(gen.Chunks()))
	for i, c := range gen.Chunks() {
		chunks[i] = GeneratedChunk{ID: c.ID(), Text: c.Text(), SourceChunkIDs: c.SourceChunkIDs()}
	}
	return GeneratedDocument{ID: gen.ID(), Chunks: chunks}
}

func traceToResponse(entries []domtrace.Entry) []TraceEntry {
	out := make([]TraceEntry, len(entries))
	for i, e := range entries {
		out[i] = TraceEntry{OutputID: e.OutputID(), SourceIDs: e.SourceIDs()}
	}
	return out
}
