package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven/mocks"
)

// stubQueryService returns a fixed result or error
type stubQueryService struct {
	result   *domain.QueryResult
	err      error
	lastText string
	lastOpts domain.QueryOptions
}

func (s *stubQueryService) Query(ctx context.Context, text string, opts domain.QueryOptions) (*domain.QueryResult, error) {
	s.lastText = text
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// stubIngestService records calls and returns configured values
type stubIngestService struct {
	report     *domain.IngestReport
	err        error
	info       domain.CollectionInfo
	stats      domain.FolderStats
	statsErr   error
	clearErr   error
	lastPath   string
	lastFolder string
	rebuilt    bool
	cleared    bool
}

func (s *stubIngestService) IngestFile(ctx context.Context, path string) (*domain.IngestReport, error) {
	s.lastPath = path
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubIngestService) IngestFolder(ctx context.Context, folder string) (*domain.IngestReport, error) {
	s.lastFolder = folder
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubIngestService) Rebuild(ctx context.Context, folder string) (*domain.IngestReport, error) {
	s.rebuilt = true
	s.lastFolder = folder
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubIngestService) Info(ctx context.Context) domain.CollectionInfo {
	return s.info
}

func (s *stubIngestService) Clear(ctx context.Context) error {
	s.cleared = true
	return s.clearErr
}

func (s *stubIngestService) FolderStats(folder string) (domain.FolderStats, error) {
	s.lastFolder = folder
	return s.stats, s.statsErr
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("unreachable") }

func newTestServer(q *stubQueryService, ing *stubIngestService, history driven.HistoryStore, lock driven.DistributedLock) *Server {
	cfg := DefaultConfig()
	cfg.Version = "test"
	cfg.DocumentsFolder = "./docs"
	return NewServer(cfg, q, ing, history, lock, nil, nil)
}

func doRequest(s *Server, method, target string, body string) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body == "" {
		rdr = bytes.NewReader(nil)
	} else {
		rdr = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, target, rdr)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&stubQueryService{}, &stubIngestService{}, nil, nil)

	rec := doRequest(s, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandleVersion(t *testing.T) {
	s := newTestServer(&stubQueryService{}, &stubIngestService{}, nil, nil)

	rec := doRequest(s, "GET", "/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"version":"test"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandleReady(t *testing.T) {
	s := newTestServer(&stubQueryService{}, &stubIngestService{}, nil, nil)

	rec := doRequest(s, "GET", "/ready", "")
	if rec.Code != http.StatusOK {
		t.Errorf("no backends: status = %d, want 200", rec.Code)
	}

	s.db = failingPinger{}
	rec = doRequest(s, "GET", "/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("failing db: status = %d, want 503", rec.Code)
	}
}

func TestHandleQuery(t *testing.T) {
	q := &stubQueryService{
		result: &domain.QueryResult{
			Answer:     "Wear safety goggles and gloves.",
			Sources:    []string{"ppe-policy.txt"},
			Confidence: 0.4,
			Mode:       domain.QueryModeStandard,
			Outcome:    domain.OutcomeExtracted,
		},
	}
	s := newTestServer(q, &stubIngestService{}, nil, nil)

	rec := doRequest(s, "POST", "/api/v1/query", `{"query":"what PPE is required?","top_k":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got domain.QueryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Answer != q.result.Answer {
		t.Errorf("answer = %q", got.Answer)
	}
	if q.lastText != "what PPE is required?" {
		t.Errorf("service received %q", q.lastText)
	}
	if q.lastOpts.TopK != 3 {
		t.Errorf("TopK = %d, want 3", q.lastOpts.TopK)
	}
}

func TestHandleQueryBadBody(t *testing.T) {
	s := newTestServer(&stubQueryService{}, &stubIngestService{}, nil, nil)

	rec := doRequest(s, "POST", "/api/v1/query", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleQueryErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty query", domain.ErrInvalidInput, http.StatusBadRequest},
		{"wrapped invalid input", errors.Join(domain.ErrInvalidInput, errors.New("detail")), http.StatusBadRequest},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&stubQueryService{err: tt.err}, &stubIngestService{}, nil, nil)
			rec := doRequest(s, "POST", "/api/v1/query", `{"query":"x"}`)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleHistory(t *testing.T) {
	history := mocks.NewMockHistoryStore()
	for _, q := range []string{"first", "second", "third"} {
		history.Record(context.Background(), &domain.HistoryEntry{
			ID:      q,
			Query:   q,
			AskedAt: time.Now(),
		})
	}
	s := newTestServer(&stubQueryService{}, &stubIngestService{}, history, nil)

	rec := doRequest(s, "GET", "/api/v1/history?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var entries []*domain.HistoryEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Query != "third" || entries[1].Query != "second" {
		t.Errorf("entries not newest first: %q, %q", entries[0].Query, entries[1].Query)
	}
}

func TestHandleHistoryUnconfigured(t *testing.T) {
	s := newTestServer(&stubQueryService{}, &stubIngestService{}, nil, nil)

	rec := doRequest(s, "GET", "/api/v1/history", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandleHistoryInvalidLimit(t *testing.T) {
	s := newTestServer(&stubQueryService{}, &stubIngestService{}, mocks.NewMockHistoryStore(), nil)

	for _, limit := range []string{"abc", "0", "-5"} {
		rec := doRequest(s, "GET", "/api/v1/history?limit="+limit, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit %q: status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestHandleHistoryEmpty(t *testing.T) {
	s := newTestServer(&stubQueryService{}, &stubIngestService{}, mocks.NewMockHistoryStore(), nil)

	rec := doRequest(s, "GET", "/api/v1/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %q, want empty array", rec.Body.String())
	}
}

func TestHandleIngestFile(t *testing.T) {
	ing := &stubIngestService{report: &domain.IngestReport{FilesLoaded: 1, ChunksAdded: 4}}
	s := newTestServer(&stubQueryService{}, ing, nil, nil)

	rec := doRequest(s, "POST", "/api/v1/ingest/file", `{"path":"/docs/sop.pdf"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ing.lastPath != "/docs/sop.pdf" {
		t.Errorf("service received %q", ing.lastPath)
	}

	var report domain.IngestReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.ChunksAdded != 4 {
		t.Errorf("ChunksAdded = %d, want 4", report.ChunksAdded)
	}
}

func TestHandleIngestFileMissingPath(t *testing.T) {
	s := newTestServer(&stubQueryService{}, &stubIngestService{}, nil, nil)

	rec := doRequest(s, "POST", "/api/v1/ingest/file", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleIngestFileErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrUnsupportedFileType, http.StatusBadRequest},
		{domain.ErrExtractionFailed, http.StatusUnprocessableEntity},
		{domain.ErrIndexUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		s := newTestServer(&stubQueryService{}, &stubIngestService{err: tt.err}, nil, nil)
		rec := doRequest(s, "POST", "/api/v1/ingest/file", `{"path":"x.txt"}`)
		if rec.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

func TestHandleIngestFolderDefault(t *testing.T) {
	ing := &stubIngestService{report: &domain.IngestReport{}}
	s := newTestServer(&stubQueryService{}, ing, nil, nil)

	// No body falls back to the configured documents folder
	rec := doRequest(s, "POST", "/api/v1/ingest/folder", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ing.lastFolder != "./docs" {
		t.Errorf("folder = %q, want configured default", ing.lastFolder)
	}

	rec = doRequest(s, "POST", "/api/v1/ingest/folder", `{"folder":"/other"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ing.lastFolder != "/other" {
		t.Errorf("folder = %q, want /other", ing.lastFolder)
	}
}

func TestHandleIndexInfo(t *testing.T) {
	ing := &stubIngestService{info: domain.CollectionInfo{DocumentCount: 42, CollectionName: "sop_documents"}}
	s := newTestServer(&stubQueryService{}, ing, nil, nil)

	rec := doRequest(s, "GET", "/api/v1/index/info", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"document_count":42`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandleRebuild(t *testing.T) {
	ing := &stubIngestService{report: &domain.IngestReport{}}
	lock := mocks.NewMockDistributedLock()
	s := newTestServer(&stubQueryService{}, ing, nil, lock)

	rec := doRequest(s, "POST", "/api/v1/index/rebuild", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !ing.rebuilt {
		t.Error("rebuild was not invoked")
	}
	if lock.IsHeld(maintenanceLockName) {
		t.Error("lock not released after rebuild")
	}
}

func TestHandleRebuildLockHeld(t *testing.T) {
	ing := &stubIngestService{report: &domain.IngestReport{}}
	lock := mocks.NewMockDistributedLock()
	lock.SetLockHeld(maintenanceLockName, time.Minute)
	s := newTestServer(&stubQueryService{}, ing, nil, lock)

	rec := doRequest(s, "POST", "/api/v1/index/rebuild", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if ing.rebuilt {
		t.Error("rebuild ran despite held lock")
	}
}

func TestHandleRebuildLockBackendDown(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	lock.AcquireFn = func(name string, ttl time.Duration) (bool, error) {
		return false, errors.New("connection refused")
	}
	s := newTestServer(&stubQueryService{}, &stubIngestService{}, nil, lock)

	rec := doRequest(s, "POST", "/api/v1/index/rebuild", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandleClearIndex(t *testing.T) {
	ing := &stubIngestService{}
	lock := mocks.NewMockDistributedLock()
	s := newTestServer(&stubQueryService{}, ing, nil, lock)

	rec := doRequest(s, "DELETE", "/api/v1/index", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !ing.cleared {
		t.Error("clear was not invoked")
	}
	if lock.IsHeld(maintenanceLockName) {
		t.Error("lock not released after clear")
	}
}

func TestHandleClearIndexNoLock(t *testing.T) {
	ing := &stubIngestService{}
	s := newTestServer(&stubQueryService{}, ing, nil, nil)

	rec := doRequest(s, "DELETE", "/api/v1/index", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 without a lock backend", rec.Code)
	}
	if !ing.cleared {
		t.Error("clear was not invoked")
	}
}

func TestHandleFolderStats(t *testing.T) {
	ing := &stubIngestService{stats: domain.FolderStats{
		TotalFiles: 3,
		FileTypes:  map[string]int{".pdf": 2, ".txt": 1},
	}}
	s := newTestServer(&stubQueryService{}, ing, nil, nil)

	rec := doRequest(s, "GET", "/api/v1/documents/stats?folder=/docs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ing.lastFolder != "/docs" {
		t.Errorf("folder = %q", ing.lastFolder)
	}

	var stats domain.FolderStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", stats.TotalFiles)
	}
}
