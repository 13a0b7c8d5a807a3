package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
)

// MockVectorIndex is an in-memory implementation of VectorIndex for testing.
// Similarity is approximated by lexical word overlap between query and
// chunk text, which keeps service tests deterministic. The global dedup
// invariant and stable tie order are honoured the same way real
// adapters honour them.
type MockVectorIndex struct {
	mu     sync.RWMutex
	chunks []domain.Chunk          // Insertion order
	seen   map[string]struct{}     // Dedup keys

	// AddErr, when set, is returned by Add
	AddErr error

	// SearchUnavailable simulates an unreachable backend: searches
	// return empty results without error, per the degraded-read contract
	SearchUnavailable bool
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{seen: make(map[string]struct{})}
}

func (m *MockVectorIndex) Add(ctx context.Context, chunks []domain.Chunk) (driven.AddResult, error) {
	if m.AddErr != nil {
		return driven.AddResult{}, m.AddErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var res driven.AddResult
	for _, chunk := range chunks {
		if chunk.IsEmpty() {
			continue
		}
		key := chunk.Key()
		if _, ok := m.seen[key]; ok {
			res.Duplicates++
			continue
		}
		m.seen[key] = struct{}{}
		m.chunks = append(m.chunks, chunk)
		res.Added++
	}
	return res, nil
}

func (m *MockVectorIndex) Search(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	hits, err := m.SearchWithScores(ctx, query, k)
	if err != nil {
		return nil, err
	}
	chunks := make([]domain.Chunk, len(hits))
	for i, hit := range hits {
		chunks[i] = hit.Chunk
	}
	return chunks, nil
}

func (m *MockVectorIndex) SearchWithScores(ctx context.Context, query string, k int) ([]domain.RetrievalHit, error) {
	if k < 1 {
		return nil, domain.ErrInvalidInput
	}
	if m.SearchUnavailable {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	queryWords := strings.Fields(strings.ToLower(query))
	hits := make([]domain.RetrievalHit, 0, len(m.chunks))
	for _, chunk := range m.chunks {
		text := strings.ToLower(chunk.Text)
		overlap := 0
		for _, w := range queryWords {
			if strings.Contains(text, w) {
				overlap++
			}
		}
		score := float32(0)
		if len(queryWords) > 0 {
			score = float32(overlap) / float32(len(queryWords))
		}
		hits = append(hits, domain.RetrievalHit{Chunk: chunk, Score: score})
	}

	// Stable sort by descending score; insertion order breaks ties
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].Score > hits[j-1].Score; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *MockVectorIndex) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = nil
	m.seen = make(map[string]struct{})
	return nil
}

func (m *MockVectorIndex) Info(ctx context.Context) domain.CollectionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.CollectionInfo{
		DocumentCount:  len(m.chunks),
		CollectionName: "mock",
	}
}
