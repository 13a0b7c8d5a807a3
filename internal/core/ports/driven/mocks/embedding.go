package mocks

import (
	"context"
	"hash/fnv"
	"sync"
)

// MockEmbeddingService is a mock implementation of EmbeddingService for testing.
// Vectors are deterministic functions of the input text so that equal
// texts always embed identically.
type MockEmbeddingService struct {
	mu         sync.Mutex
	dimensions int
	calls      []string

	// Err, when set, is returned by every call
	Err error
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{dimensions: 8}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	m.calls = append(m.calls, texts...)
	m.mu.Unlock()

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vector(text)
	}
	return vectors, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	m.calls = append(m.calls, query)
	m.mu.Unlock()
	return m.vector(query), nil
}

func (m *MockEmbeddingService) Dimensions() int { return m.dimensions }

func (m *MockEmbeddingService) Model() string { return "mock-embedding" }

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error { return m.Err }

func (m *MockEmbeddingService) Close() error { return nil }

// Calls returns every text embedded so far
func (m *MockEmbeddingService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockEmbeddingService) vector(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()

	v := make([]float32, m.dimensions)
	for i := range v {
		seed = seed*1664525 + 1013904223
		v[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return v
}
