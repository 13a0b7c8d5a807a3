package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.HistoryStore = (*HistoryStore)(nil)

const historyKey = "sopqa:history"

// defaultMaxEntries caps the history list; older entries are trimmed.
const defaultMaxEntries = 500

// HistoryStore implements driven.HistoryStore using a Redis list.
// Entries are pushed to the head, so recency order is the list order.
type HistoryStore struct {
	client     *redis.Client
	maxEntries int64
}

// NewHistoryStore creates a Redis-backed HistoryStore.
// maxEntries <= 0 uses the default cap.
func NewHistoryStore(client *redis.Client, maxEntries int) *HistoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &HistoryStore{client: client, maxEntries: int64(maxEntries)}
}

// Record appends one history entry and trims the list to the cap.
func (s *HistoryStore) Record(ctx context.Context, entry *domain.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, s.maxEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	items, err := s.client.LRange(ctx, historyKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]*domain.HistoryEntry, 0, len(items))
	for _, item := range items {
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			// Skip corrupt entries rather than failing the read
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// Ping checks if the Redis backend is healthy.
func (s *HistoryStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
