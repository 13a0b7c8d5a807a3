package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	docsFolder string

	// Services
	queryService  driving.QueryService
	ingestService driving.IngestService

	// Infrastructure
	history driven.HistoryStore    // optional
	lock    driven.DistributedLock // optional, guards index maintenance
	db      Pinger                 // PostgreSQL health check (optional)
	redis   Pinger                 // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host            string
	Port            int
	Version         string
	DocumentsFolder string
	AllowedOrigins  []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		Version:         "dev",
		DocumentsFolder: "./documents",
		AllowedOrigins:  []string{"*"},
	}
}

// NewServer creates a new HTTP server. history, lock, db and redis
// may be nil when the matching backend is not configured.
func NewServer(
	cfg Config,
	queryService driving.QueryService,
	ingestService driving.IngestService,
	history driven.HistoryStore,
	lock driven.DistributedLock,
	db Pinger,
	redis Pinger,
) *Server {
	s := &Server{
		router:        http.NewServeMux(),
		version:       cfg.Version,
		docsFolder:    cfg.DocumentsFolder,
		queryService:  queryService,
		ingestService: ingestService,
		history:       history,
		lock:          lock,
		db:            db,
		redis:         redis,
	}

	s.setupRoutes()

	handler := NewRecoveryMiddleware().Handler(
		NewLoggingMiddleware().Handler(
			NewCORSMiddleware(cfg.AllowedOrigins).Handler(s.router)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // folder ingestion can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Query endpoints
	s.router.HandleFunc("POST /api/v1/query", s.handleQuery)
	s.router.HandleFunc("GET /api/v1/history", s.handleHistory)

	// Ingestion endpoints
	s.router.HandleFunc("POST /api/v1/ingest/file", s.handleIngestFile)
	s.router.HandleFunc("POST /api/v1/ingest/folder", s.handleIngestFolder)
	s.router.HandleFunc("GET /api/v1/documents/stats", s.handleFolderStats)

	// Index endpoints
	s.router.HandleFunc("GET /api/v1/index/info", s.handleIndexInfo)
	s.router.HandleFunc("POST /api/v1/index/rebuild", s.handleRebuild)
	s.router.HandleFunc("DELETE /api/v1/index", s.handleClearIndex)
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
