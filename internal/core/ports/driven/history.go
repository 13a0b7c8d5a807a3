package driven

import (
	"context"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// HistoryStore records answered queries for audit.
// Recording is best-effort: the query pipeline never fails because
// history could not be written.
type HistoryStore interface {
	// Record appends one history entry
	Record(ctx context.Context, entry *domain.HistoryEntry) error

	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error)
}
