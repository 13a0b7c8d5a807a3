package domain

import "sync"

// RuntimeConfig tracks which services are available at runtime.
// This is determined at startup and can be updated dynamically for AI services.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	IndexBackend string // "chromem" or "postgres"

	// Dynamic capability flags (updated when AI services change)
	embeddingAvailable  bool
	generationAvailable bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(indexBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		IndexBackend: indexBackend,
	}
}

// EmbeddingAvailable returns whether the embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// GenerationAvailable returns whether the generative model is available
func (c *RuntimeConfig) GenerationAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generationAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetGenerationAvailable updates the generation availability flag
func (c *RuntimeConfig) SetGenerationAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generationAvailable = available
}

// CanRetrieve returns true if semantic retrieval is possible.
// Without an embedding service the index is reachable but unsearchable,
// so queries degrade to the empty-context fallback answer.
func (c *RuntimeConfig) CanRetrieve() bool {
	return c.EmbeddingAvailable()
}

// CanGenerate returns true if generative synthesis is possible.
// When false, answers come from the deterministic extractive path.
func (c *RuntimeConfig) CanGenerate() bool {
	return c.GenerationAvailable()
}
