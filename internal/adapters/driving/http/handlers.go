package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse represents a simple status response
type StatusResponse struct {
	Status string `json:"status"`
}

// VersionResponse represents the API version response
type VersionResponse struct {
	Version string `json:"version"`
}

// QueryRequest carries one question for the pipeline
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// IngestFileRequest names one document to index
type IngestFileRequest struct {
	Path string `json:"path"`
}

// IngestFolderRequest names a folder to index. An empty folder falls
// back to the server's configured documents folder.
type IngestFolderRequest struct {
	Folder string `json:"folder,omitempty"`
}

// maintenanceLockTTL bounds how long a crashed instance can keep the
// shared index locked.
const maintenanceLockTTL = 10 * time.Minute

const maintenanceLockName = "index-maintenance"

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports whether the configured backends are reachable.
// Backends that were not wired at startup are skipped.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Query endpoints

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.queryService.Query(r.Context(), req.Query, domain.QueryOptions{TopK: req.TopK})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "query text is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleHistory returns recent answered queries, newest first.
// Supports ?limit=N, default 20.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "query history is not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if entries == nil {
		entries = []*domain.HistoryEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

// Ingestion endpoints

func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	var req IngestFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	report, err := s.ingestService.IngestFile(r.Context(), req.Path)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "file not found")
		case errors.Is(err, domain.ErrUnsupportedFileType):
			writeError(w, http.StatusBadRequest, "unsupported file type")
		case errors.Is(err, domain.ErrExtractionFailed):
			writeError(w, http.StatusUnprocessableEntity, "could not extract text from file")
		case errors.Is(err, domain.ErrIndexUnavailable):
			writeError(w, http.StatusServiceUnavailable, "index unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "ingestion failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleIngestFolder(w http.ResponseWriter, r *http.Request) {
	folder, ok := s.folderFromRequest(w, r)
	if !ok {
		return
	}

	report, err := s.ingestService.IngestFolder(r.Context(), folder)
	if err != nil {
		if errors.Is(err, domain.ErrIndexUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "index unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleFolderStats(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = s.docsFolder
	}

	stats, err := s.ingestService.FolderStats(folder)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read folder")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Index endpoints

func (s *Server) handleIndexInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ingestService.Info(r.Context()))
}

// handleRebuild clears the collection and re-ingests the folder. When
// a distributed lock is configured it serializes rebuilds across
// instances sharing one index.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	folder, ok := s.folderFromRequest(w, r)
	if !ok {
		return
	}

	release, ok := s.acquireMaintenanceLock(w, r)
	if !ok {
		return
	}
	defer release()

	report, err := s.ingestService.Rebuild(r.Context(), folder)
	if err != nil {
		if errors.Is(err, domain.ErrIndexUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "index unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "rebuild failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleClearIndex(w http.ResponseWriter, r *http.Request) {
	release, ok := s.acquireMaintenanceLock(w, r)
	if !ok {
		return
	}
	defer release()

	if err := s.ingestService.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear index")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

// folderFromRequest decodes an optional folder from the body, falling
// back to the configured documents folder. Writes the error response
// itself and returns ok=false when neither is set.
func (s *Server) folderFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req IngestFolderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return "", false
		}
	}

	folder := req.Folder
	if folder == "" {
		folder = s.docsFolder
	}
	if folder == "" {
		writeError(w, http.StatusBadRequest, "folder is required")
		return "", false
	}
	return folder, true
}

// acquireMaintenanceLock takes the shared maintenance lock when one is
// configured. Writes the error response itself and returns ok=false
// when the lock is held elsewhere or the backend fails. The returned
// release func is always safe to call.
func (s *Server) acquireMaintenanceLock(w http.ResponseWriter, r *http.Request) (func(), bool) {
	if s.lock == nil {
		return func() {}, true
	}

	acquired, err := s.lock.Acquire(r.Context(), maintenanceLockName, maintenanceLockTTL)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "lock backend unavailable")
		return nil, false
	}
	if !acquired {
		writeError(w, http.StatusConflict, "index maintenance already in progress")
		return nil, false
	}

	return func() {
		_ = s.lock.Release(r.Context(), maintenanceLockName)
	}, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
