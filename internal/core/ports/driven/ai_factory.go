package driven

import (
	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// AIServiceFactory creates AI services from provider settings
type AIServiceFactory interface {
	// CreateEmbeddingService creates an embedding service from settings.
	// Returns (nil, nil) when settings are absent or incomplete.
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)

	// CreateGenerationService creates a generation service from settings.
	// Returns (nil, nil) when settings are absent or incomplete.
	CreateGenerationService(settings *domain.GenerationSettings) (GenerationService, error)
}
