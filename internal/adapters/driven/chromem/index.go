package chromem

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
	rt "github.com/opsdocs-labs/sopqa-core/internal/runtime"
)

// Ensure Index implements VectorIndex
var _ driven.VectorIndex = (*Index)(nil)

// Config holds index configuration
type Config struct {
	// PersistDirectory is the on-disk location of the collection.
	// Empty means in-memory (used by tests).
	PersistDirectory string

	// CollectionName keys the collection within the store
	CollectionName string

	// Compress enables gzip compression of persisted vectors
	Compress bool
}

// Index implements VectorIndex on an embedded chromem-go store.
//
// Vector IDs are the chunks' content-hash keys, so the
// no-duplicate-text invariant holds structurally: the same text can
// never occupy two vectors, across process restarts included. On top
// of that, known keys are tracked in memory so a duplicate Add is
// rejected before any embedding call.
//
// A single RWMutex per Index is the collection lock: Add and Clear are
// mutually exclusive with each other and with reads.
type Index struct {
	mu sync.RWMutex

	db         *chromemgo.DB
	collection *chromemgo.Collection
	cfg        Config
	services   *rt.Services
	logger     *slog.Logger

	// seen tracks known content keys with their insertion ordinal,
	// used for duplicate rejection and stable tie-breaking
	seen    map[string]int
	nextSeq int
}

// NewIndex opens (or creates) the persisted collection.
func NewIndex(cfg Config, services *rt.Services, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CollectionName == "" {
		cfg.CollectionName = "sop-knowledge"
	}

	var db *chromemgo.DB
	var err error
	if cfg.PersistDirectory == "" {
		db = chromemgo.NewDB()
	} else {
		db, err = chromemgo.NewPersistentDB(cfg.PersistDirectory, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("open persistent store: %w", err)
		}
	}

	idx := &Index{
		db:       db,
		cfg:      cfg,
		services: services,
		logger:   logger,
		seen:     make(map[string]int),
	}

	idx.collection, err = db.GetOrCreateCollection(cfg.CollectionName, nil, idx.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", cfg.CollectionName, err)
	}

	return idx, nil
}

// embeddingFunc adapts the dynamically configured embedding service to
// the store's embedding callback.
func (i *Index) embeddingFunc() chromemgo.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		svc := i.services.EmbeddingService()
		if svc == nil {
			return nil, domain.ErrEmbeddingUnavailable
		}
		return svc.EmbedQuery(ctx, text)
	}
}

// Add embeds and inserts chunks. Chunks whose text already exists in
// the collection are rejected without re-embedding. A storage or
// embedding failure reports the whole call as failed; nothing is
// silently half-committed.
func (i *Index) Add(ctx context.Context, chunks []domain.Chunk) (driven.AddResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var res driven.AddResult
	var docs []chromemgo.Document
	var keys []string
	batch := make(map[string]struct{}, len(chunks))

	for _, chunk := range chunks {
		if chunk.IsEmpty() {
			continue
		}
		key := chunk.Key()
		if _, ok := batch[key]; ok {
			res.Duplicates++
			continue
		}
		batch[key] = struct{}{}
		if i.knownLocked(ctx, key) {
			res.Duplicates++
			continue
		}
		docs = append(docs, chromemgo.Document{
			ID:      key,
			Content: chunk.Text,
			Metadata: map[string]string{
				"source_path": chunk.Metadata.SourcePath,
				"chunk_index": strconv.Itoa(chunk.Metadata.ChunkIndex),
				"file_name":   chunk.Metadata.FileName,
				"file_type":   chunk.Metadata.FileType,
			},
		})
		keys = append(keys, key)
	}

	if len(docs) == 0 {
		return res, nil
	}

	if err := i.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return res, fmt.Errorf("%w: add documents: %v", domain.ErrIndexUnavailable, err)
	}

	for _, key := range keys {
		i.seen[key] = i.nextSeq
		i.nextSeq++
	}
	res.Added = len(docs)
	return res, nil
}

// knownLocked reports whether the key already exists in the collection.
// Falls back to the store for keys from earlier process runs.
func (i *Index) knownLocked(ctx context.Context, key string) bool {
	if _, ok := i.seen[key]; ok {
		return true
	}
	if _, err := i.collection.GetByID(ctx, key); err == nil {
		i.seen[key] = i.nextSeq
		i.nextSeq++
		return true
	}
	return false
}

// Search returns the top-k chunks ranked by similarity
func (i *Index) Search(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	hits, err := i.SearchWithScores(ctx, query, k)
	if err != nil {
		return nil, err
	}
	chunks := make([]domain.Chunk, len(hits))
	for n, hit := range hits {
		chunks[n] = hit.Chunk
	}
	return chunks, nil
}

// SearchWithScores returns the top-k chunks with raw cosine similarity
// per hit, higher is better. A failing backend or absent embedding
// service yields an empty result with a logged warning so the read
// path stays available.
func (i *Index) SearchWithScores(ctx context.Context, query string, k int) ([]domain.RetrievalHit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1", domain.ErrInvalidInput)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	count := i.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := i.collection.QueryWithOptions(ctx, chromemgo.QueryOptions{
		QueryText: query,
		NResults:  k,
	})
	if err != nil {
		i.logger.Warn("similarity search failed, returning empty result", "collection", i.cfg.CollectionName, "error", err)
		return nil, nil
	}

	hits := make([]domain.RetrievalHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, domain.RetrievalHit{
			Chunk: chunkFromResult(r),
			Score: r.Similarity,
		})
	}

	// The store orders by similarity; make tie order deterministic by
	// insertion ordinal. Keys unknown to this process keep store order.
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return i.ordinal(hits[a].Chunk) < i.ordinal(hits[b].Chunk)
	})

	return hits, nil
}

// Clear irreversibly deletes all vectors and reinitializes the
// collection empty. Safe to call when the collection does not exist.
func (i *Index) Clear(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.db.DeleteCollection(i.cfg.CollectionName); err != nil {
		// Missing collection is fine; Clear must succeed regardless
		i.logger.Debug("delete collection", "collection", i.cfg.CollectionName, "error", err)
	}

	collection, err := i.db.GetOrCreateCollection(i.cfg.CollectionName, nil, i.embeddingFunc())
	if err != nil {
		return fmt.Errorf("%w: recreate collection: %v", domain.ErrIndexUnavailable, err)
	}

	i.collection = collection
	i.seen = make(map[string]int)
	i.nextSeq = 0
	return nil
}

// Info returns collection stats. Never fails; an empty collection
// yields zero counts.
func (i *Index) Info(ctx context.Context) domain.CollectionInfo {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return domain.CollectionInfo{
		DocumentCount:  i.collection.Count(),
		CollectionName: i.cfg.CollectionName,
	}
}

func (i *Index) ordinal(chunk domain.Chunk) int {
	if seq, ok := i.seen[chunk.Key()]; ok {
		return seq
	}
	return int(^uint(0) >> 1)
}

func chunkFromResult(r chromemgo.Result) domain.Chunk {
	chunkIndex, _ := strconv.Atoi(r.Metadata["chunk_index"])
	return domain.Chunk{
		Text: r.Content,
		Metadata: domain.ChunkMetadata{
			SourcePath: r.Metadata["source_path"],
			ChunkIndex: chunkIndex,
			FileName:   r.Metadata["file_name"],
			FileType:   r.Metadata["file_type"],
		},
	}
}
