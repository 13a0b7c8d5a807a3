package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driving"
)

// Ensure queryService implements QueryService
var _ driving.QueryService = (*queryService)(nil)

// queryService implements the QueryService interface
type queryService struct {
	index       driven.VectorIndex
	classifier  *IntentClassifier
	synthesizer *Synthesizer
	history     driven.HistoryStore // optional, may be nil
	logger      *slog.Logger
}

// NewQueryService creates a new QueryService. history may be nil, in
// which case answered queries are not recorded.
func NewQueryService(
	index driven.VectorIndex,
	classifier *IntentClassifier,
	synthesizer *Synthesizer,
	history driven.HistoryStore,
	logger *slog.Logger,
) driving.QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &queryService{
		index:       index,
		classifier:  classifier,
		synthesizer: synthesizer,
		history:     history,
		logger:      logger,
	}
}

// Query answers one question end-to-end: classify intent, retrieve
// ranked chunks, assemble context and synthesize the answer. Every
// call returns a QueryResult; retrieval or model failure degrades to
// the fallback answer rather than an error.
func (s *queryService) Query(ctx context.Context, text string, opts domain.QueryOptions) (*domain.QueryResult, error) {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrInvalidInput
	}
	if opts.TopK <= 0 {
		opts.TopK = domain.DefaultQueryOptions().TopK
	}

	mode := s.classifier.Classify(text)

	hits, err := s.index.SearchWithScores(ctx, text, opts.TopK)
	if err != nil {
		// The index converts backend failures into empty results; an
		// error here means invalid input. Degrade to no context.
		s.logger.Warn("retrieval failed", "error", err)
		hits = nil
	}

	result := s.synthesizer.Synthesize(ctx, text, mode, hits)
	result.Took = time.Since(start)

	s.record(ctx, text, result)

	return result, nil
}

// record persists the answered query, best-effort.
func (s *queryService) record(ctx context.Context, query string, result *domain.QueryResult) {
	if s.history == nil {
		return
	}
	entry := &domain.HistoryEntry{
		ID:      uuid.NewString(),
		Query:   query,
		Answer:  result.Answer,
		Sources: result.Sources,
		Mode:    result.Mode,
		AskedAt: time.Now().UTC(),
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record query history", "error", err)
	}
}
