package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/glassbox/internal/domain"
	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
	domtrace "github.com/kailas-cloud/glassbox/internal/domain/trace"
	healthuc "github.com/kailas-cloud/glassbox/internal/usecase/health"
	"github.com/kailas-cloud/glassbox/internal/usecase/pipeline"
)

// --- Mocks ---

type mockPipeline struct {
	processRes pipeline.Result
	processErr error
	fetchRes   pipeline.Result
	fetchErr   error
	lastTitle  string
	lastID     string
}

func (m *mockPipeline) Process(_ context.Context, title, _ string) (pipeline.Result, error) {
	m.lastTitle = title
	return m.processRes, m.processErr
}

func (m *mockPipeline) Fetch(_ context.Context, id string) (pipeline.Result, error) {
	m.lastID = id
	return m.fetchRes, m.fetchErr
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func testResult() pipeline.Result {
	chunks := []domdoc.Chunk{
		domdoc.ReconstructChunk("c1", "First.", 0, nil, false),
		domdoc.ReconstructChunk("c2", "Second.", 1, nil, false),
	}
	out := []domdoc.OutputChunk{
		domdoc.ReconstructOutputChunk("o1", "Generated text.", []string{"c2", "c1"}),
		domdoc.ReconstructOutputChunk("o2", "Uncovered section.", nil),
	}
	return pipeline.Result{
		Source:    domdoc.ReconstructSource("src-1", "Notes", chunks),
		Generated: domdoc.ReconstructGenerated("gen-1", out),
		Trace: []domtrace.Entry{
			domtrace.NewEntry("o1", []string{"c2", "c1"}),
			domtrace.NewEntry("o2", nil),
		},
	}
}

func newTestServer(p *mockPipeline, h *mockHealth) http.Handler {
	if h == nil {
		h = &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckOK},
		}}
	}
	srv := NewServer(p, h, zap.NewNop())
	r := chirouter.NewRouter()
	srv.Routes(r)
	return r
}

// --- Tests ---

func TestProcessDocument_Created(t *testing.T) {
	mp := &mockPipeline{processRes: testResult()}
	handler := newTestServer(mp, nil)

	body := `{"title":"Notes","content":"Some text."}`
	req := httptest.NewRequest("POST", "/v1/documents", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/v1/documents/src-1" {
		t.Errorf("unexpected Location header %q", loc)
	}
	if mp.lastTitle != "Notes" {
		t.Errorf("title not passed through, got %q", mp.lastTitle)
	}

	var resp TransactionResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SourceDocument.ID != "src-1" || len(resp.SourceDocument.Chunks) != 2 {
		t.Errorf("unexpected source document: %+v", resp.SourceDocument)
	}
	if resp.GeneratedDocument.ID != "gen-1" || len(resp.GeneratedDocument.Chunks) != 2 {
		t.Errorf("unexpected generated document: %+v", resp.GeneratedDocument)
	}
	if len(resp.TraceabilityMap) != 2 {
		t.Fatalf("expected 2 trace entries, got %d", len(resp.TraceabilityMap))
	}
	if resp.TraceabilityMap[0].SourceIDs[0] != "c2" {
		t.Error("trace source ids must keep rank order")
	}
	if resp.TraceabilityMap[1].SourceIDs == nil {
		t.Error("empty trace support must serialize as [], not null")
	}
}

func TestProcessDocument_InvalidBody(t *testing.T) {
	handler := newTestServer(&mockPipeline{}, nil)

	req := httptest.NewRequest("POST", "/v1/documents", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeBadRequest {
		t.Errorf("error code: got %s, want %s", errResp.Code, CodeBadRequest)
	}
}

func TestProcessDocument_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"validation", domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed},
		{"embedding provider", domain.ErrEmbeddingProvider, http.StatusBadGateway, CodeEmbeddingProvider},
		{"generation provider", domain.ErrGenerationProvider, http.StatusBadGateway, CodeGenerationProvider},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited},
		{"persistence", domain.ErrPersistence, http.StatusInternalServerError, CodePersistenceError},
		{"already exists", domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mp := &mockPipeline{processErr: fmt.Errorf("wrapped: %w", tc.err)}
			handler := newTestServer(mp, nil)

			req := httptest.NewRequest("POST", "/v1/documents",
				strings.NewReader(`{"title":"T","content":"C"}`))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tc.wantStatus)
			}

			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != tc.wantCode {
				t.Errorf("code: got %s, want %s", errResp.Code, tc.wantCode)
			}
			if strings.Contains(errResp.Message, "wrapped") {
				t.Errorf("internal detail leaked to client: %q", errResp.Message)
			}
		})
	}
}

func TestGetDocument_OK(t *testing.T) {
	mp := &mockPipeline{fetchRes: testResult()}
	handler := newTestServer(mp, nil)

	req := httptest.NewRequest("GET", "/v1/documents/src-1", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	if mp.lastID != "src-1" {
		t.Errorf("id not passed through, got %q", mp.lastID)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	mp := &mockPipeline{fetchErr: fmt.Errorf("record: %w", domain.ErrNotFound)}
	handler := newTestServer(mp, nil)

	req := httptest.NewRequest("GET", "/v1/documents/missing", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestHealthCheck_OK(t *testing.T) {
	handler := newTestServer(&mockPipeline{}, nil)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(healthuc.Healthy) {
		t.Errorf("status: got %q, want %q", resp.Status, healthuc.Healthy)
	}
}

func TestHealthCheck_Degraded_503(t *testing.T) {
	mh := &mockHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckError},
	}}
	handler := newTestServer(&mockPipeline{}, mh)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
