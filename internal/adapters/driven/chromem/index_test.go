package chromem

import (
	"context"
	"errors"
	"testing"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven/mocks"
	rt "github.com/opsdocs-labs/sopqa-core/internal/runtime"
)

func newTestIndex(t *testing.T) (*Index, *rt.Services) {
	t.Helper()

	services := rt.NewServices(domain.NewRuntimeConfig("chromem"))
	services.SetEmbeddingService(mocks.NewMockEmbeddingService())

	idx, err := NewIndex(Config{CollectionName: "test-collection"}, services, nil)
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	return idx, services
}

func chunk(text, path string, index int) domain.Chunk {
	return domain.Chunk{
		Text: text,
		Metadata: domain.ChunkMetadata{
			SourcePath: path,
			ChunkIndex: index,
			FileName:   path,
			FileType:   ".txt",
		},
	}
}

func TestIndexAdd(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	res, err := idx.Add(ctx, []domain.Chunk{
		chunk("wear safety goggles at all times", "ppe.txt", 0),
		chunk("inspect the harness before each shift", "ppe.txt", 1),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if res.Added != 2 || res.Duplicates != 0 {
		t.Errorf("Add() = %+v, want 2 added, 0 duplicates", res)
	}

	info := idx.Info(ctx)
	if info.DocumentCount != 2 {
		t.Errorf("DocumentCount = %d, want 2", info.DocumentCount)
	}
	if info.CollectionName != "test-collection" {
		t.Errorf("CollectionName = %q, want %q", info.CollectionName, "test-collection")
	}
}

func TestIndexAddRejectsDuplicates(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	first := []domain.Chunk{chunk("check the fire extinguisher monthly", "fire.txt", 0)}
	if _, err := idx.Add(ctx, first); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	// Same text again, plus a within-batch duplicate pair
	res, err := idx.Add(ctx, []domain.Chunk{
		chunk("check the fire extinguisher monthly", "fire-copy.txt", 0),
		chunk("replace expired units immediately", "fire.txt", 1),
		chunk("replace expired units immediately", "fire.txt", 2),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if res.Added != 1 || res.Duplicates != 2 {
		t.Errorf("Add() = %+v, want 1 added, 2 duplicates", res)
	}

	if got := idx.Info(ctx).DocumentCount; got != 2 {
		t.Errorf("DocumentCount = %d, want 2", got)
	}
}

func TestIndexAddSkipsEmptyChunks(t *testing.T) {
	idx, _ := newTestIndex(t)

	res, err := idx.Add(context.Background(), []domain.Chunk{
		chunk("", "blank.txt", 0),
		chunk("   \n\t ", "blank.txt", 1),
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if res.Added != 0 || res.Duplicates != 0 {
		t.Errorf("Add() = %+v, want nothing added", res)
	}
}

func TestIndexAddWithoutEmbeddingService(t *testing.T) {
	idx, services := newTestIndex(t)
	services.SetEmbeddingService(nil)

	_, err := idx.Add(context.Background(), []domain.Chunk{chunk("some text", "a.txt", 0)})
	if err == nil {
		t.Fatal("Add() expected error when embedding service is absent")
	}
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("Add() error = %v, want ErrIndexUnavailable", err)
	}
}

func TestIndexSearchEmptyCollection(t *testing.T) {
	idx, _ := newTestIndex(t)

	hits, err := idx.SearchWithScores(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("SearchWithScores() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("SearchWithScores() returned %d hits, want 0", len(hits))
	}
}

func TestIndexSearchClampsK(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	if _, err := idx.Add(ctx, []domain.Chunk{
		chunk("wear gloves when handling chemicals", "lab.txt", 0),
		chunk("store acids in the ventilated cabinet", "lab.txt", 1),
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	hits, err := idx.SearchWithScores(ctx, "gloves", 10)
	if err != nil {
		t.Fatalf("SearchWithScores() error = %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("SearchWithScores() returned %d hits, want 2", len(hits))
	}
	for _, hit := range hits {
		if hit.Chunk.Text == "" {
			t.Error("hit has empty chunk text")
		}
		if hit.Chunk.Metadata.FileName != "lab.txt" {
			t.Errorf("hit file name = %q, want %q", hit.Chunk.Metadata.FileName, "lab.txt")
		}
	}
}

func TestIndexSearchInvalidK(t *testing.T) {
	idx, _ := newTestIndex(t)

	_, err := idx.SearchWithScores(context.Background(), "query", 0)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("SearchWithScores(k=0) error = %v, want ErrInvalidInput", err)
	}
}

func TestIndexSearchDegradesWithoutEmbedding(t *testing.T) {
	idx, services := newTestIndex(t)
	ctx := context.Background()

	if _, err := idx.Add(ctx, []domain.Chunk{chunk("lockout tagout steps", "loto.txt", 0)}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	services.SetEmbeddingService(nil)

	hits, err := idx.SearchWithScores(ctx, "lockout", 5)
	if err != nil {
		t.Fatalf("SearchWithScores() error = %v, want degraded empty result", err)
	}
	if len(hits) != 0 {
		t.Errorf("SearchWithScores() returned %d hits, want 0 in degraded mode", len(hits))
	}
}

func TestIndexClear(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	if _, err := idx.Add(ctx, []domain.Chunk{chunk("drain the compressor tank daily", "air.txt", 0)}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := idx.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if got := idx.Info(ctx).DocumentCount; got != 0 {
		t.Errorf("DocumentCount after Clear = %d, want 0", got)
	}

	// Clearing an already empty collection succeeds
	if err := idx.Clear(ctx); err != nil {
		t.Fatalf("Clear() on empty collection error = %v", err)
	}

	// The collection is usable again after clearing
	res, err := idx.Add(ctx, []domain.Chunk{chunk("drain the compressor tank daily", "air.txt", 0)})
	if err != nil {
		t.Fatalf("Add() after Clear error = %v", err)
	}
	if res.Added != 1 {
		t.Errorf("Add() after Clear = %+v, want 1 added", res)
	}
}
