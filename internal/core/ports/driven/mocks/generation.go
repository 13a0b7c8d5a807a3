package mocks

import (
	"context"
	"sync"

	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
)

// MockGenerationService is a mock implementation of GenerationService for testing
type MockGenerationService struct {
	mu      sync.Mutex
	prompts []string

	// Response is returned by Generate when Err is nil
	Response string

	// Err, when set, is returned by Generate and Ping
	Err error
}

// NewMockGenerationService creates a new MockGenerationService
func NewMockGenerationService() *MockGenerationService {
	return &MockGenerationService{}
}

func (m *MockGenerationService) Generate(ctx context.Context, prompt string, params driven.DecodingParams) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.Response, nil
}

func (m *MockGenerationService) Model() string { return "mock-generation" }

func (m *MockGenerationService) Ping(ctx context.Context) error { return m.Err }

func (m *MockGenerationService) Close() error { return nil }

// Prompts returns every prompt passed to Generate
func (m *MockGenerationService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
