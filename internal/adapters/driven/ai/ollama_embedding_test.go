package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaEmbedding_Embed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		inputs, _ := req["input"].([]any)
		embeddings := make([][]float32, len(inputs))
		for i := range embeddings {
			embeddings[i] = []float32{0.1, 0.2, 0.3}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":      req["model"],
			"embeddings": embeddings,
		})
	}))
	defer server.Close()

	svc, err := NewOllamaEmbedding(server.URL, "nomic-embed-text")
	if err != nil {
		t.Fatalf("NewOllamaEmbedding() error = %v", err)
	}
	defer svc.Close()

	vectors, err := svc.Embed(context.Background(), []string{"first text", "second text"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("Embed() returned %d vectors, want 2", len(vectors))
	}
	if len(vectors[0]) != 3 {
		t.Errorf("vector length = %d, want 3", len(vectors[0]))
	}

	// Dimensions learned from the first response
	if svc.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d, want 3", svc.Dimensions())
	}
}

func TestOllamaEmbedding_Embed_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
	}))
	defer server.Close()

	svc, _ := NewOllamaEmbedding(server.URL, "missing")
	defer svc.Close()

	if _, err := svc.Embed(context.Background(), []string{"text"}); err == nil {
		t.Error("expected error")
	}
}

func TestOllamaEmbedding_Embed_EmptyInput(t *testing.T) {
	svc, err := NewOllamaEmbedding("", "")
	if err != nil {
		t.Fatalf("NewOllamaEmbedding() error = %v", err)
	}
	defer svc.Close()

	vectors, err := svc.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed(nil) error = %v", err)
	}
	if vectors != nil {
		t.Errorf("Embed(nil) = %v, want nil", vectors)
	}
}
