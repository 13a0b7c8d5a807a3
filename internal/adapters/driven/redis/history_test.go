package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

func entry(id, query string) *domain.HistoryEntry {
	return &domain.HistoryEntry{
		ID:      id,
		Query:   query,
		Answer:  "an answer",
		Sources: []string{"ppe.txt"},
		Mode:    domain.QueryModeStandard,
		AskedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestHistoryRecordAndRecent(t *testing.T) {
	client := setupTestRedis(t)
	store := NewHistoryStore(client, 0)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		e := entry(fmt.Sprintf("id-%d", i), fmt.Sprintf("question %d", i))
		require.NoError(t, store.Record(ctx, e))
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, "id-3", entries[0].ID)
	assert.Equal(t, "id-2", entries[1].ID)
	assert.Equal(t, "question 3", entries[0].Query)
	assert.Equal(t, domain.QueryModeStandard, entries[0].Mode)
	assert.Equal(t, []string{"ppe.txt"}, entries[0].Sources)
}

func TestHistoryRecentEmpty(t *testing.T) {
	client := setupTestRedis(t)
	store := NewHistoryStore(client, 0)

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryTrimsToCap(t *testing.T) {
	client := setupTestRedis(t)
	store := NewHistoryStore(client, 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Record(ctx, entry(fmt.Sprintf("id-%d", i), "q")))
	}

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "id-5", entries[0].ID)
	assert.Equal(t, "id-3", entries[2].ID)
}

func TestHistoryRecentZeroLimit(t *testing.T) {
	client := setupTestRedis(t)
	store := NewHistoryStore(client, 0)

	entries, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, entries)
}
