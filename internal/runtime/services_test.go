package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven/mocks"
)

func TestServicesLifecycle(t *testing.T) {
	config := domain.NewRuntimeConfig("chromem")
	services := NewServices(config)

	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service initially")
	}
	if services.GenerationService() != nil {
		t.Error("expected nil generation service initially")
	}
	if config.CanRetrieve() {
		t.Error("retrieval should be unavailable initially")
	}

	services.SetEmbeddingService(mocks.NewMockEmbeddingService())
	services.SetGenerationService(mocks.NewMockGenerationService())

	if services.EmbeddingService() == nil {
		t.Error("expected embedding service after set")
	}
	if !config.CanRetrieve() {
		t.Error("retrieval should be available after set")
	}
	if !config.CanGenerate() {
		t.Error("generation should be available after set")
	}

	if err := services.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if services.EmbeddingService() != nil {
		t.Error("expected nil embedding service after close")
	}
	if config.CanRetrieve() || config.CanGenerate() {
		t.Error("capabilities should be cleared after close")
	}
}

func TestValidateAndSetEmbedding(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("chromem"))

	failing := mocks.NewMockEmbeddingService()
	failing.Err = errors.New("connection refused")

	if err := services.ValidateAndSetEmbedding(context.Background(), failing); err == nil {
		t.Error("expected validation error for unreachable service")
	}
	if services.EmbeddingService() != nil {
		t.Error("failed validation must not install the service")
	}

	if err := services.ValidateAndSetEmbedding(context.Background(), mocks.NewMockEmbeddingService()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if services.EmbeddingService() == nil {
		t.Error("expected embedding service installed")
	}
}

func TestValidateAndSetGeneration(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("chromem"))

	failing := mocks.NewMockGenerationService()
	failing.Err = errors.New("model not loaded")

	if err := services.ValidateAndSetGeneration(context.Background(), failing); err == nil {
		t.Error("expected validation error for unavailable model")
	}
	if services.GenerationService() != nil {
		t.Error("failed validation must not install the service")
	}

	if err := services.ValidateAndSetGeneration(context.Background(), nil); err != nil {
		t.Fatalf("setting nil should succeed: %v", err)
	}
}
