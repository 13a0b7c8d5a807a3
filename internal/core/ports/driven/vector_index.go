package driven

import (
	"context"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// AddResult reports the outcome of one Add call.
type AddResult struct {
	Added      int // Vectors inserted
	Duplicates int // Chunks rejected because their text already exists in the collection
}

// VectorIndex owns an embedding function and a persistent
// nearest-neighbor store for one named collection.
//
// Implementations must enforce the collection-level dedup invariant:
// a chunk whose text already exists anywhere in the persisted
// collection is rejected on Add, not re-embedded, not re-inserted.
// All mutating operations are mutually exclusive with each other and
// with searches on the same collection.
//
// Scores are cosine similarity in [0,1]; higher is better. This is
// not a confidence percentage.
type VectorIndex interface {
	// Add embeds and inserts chunks. Either all chunks in the call are
	// processed or an error reports what failed; a failed call never
	// leaves a partial commit unreported.
	Add(ctx context.Context, chunks []domain.Chunk) (AddResult, error)

	// Search returns the top-k chunks ranked by similarity, k >= 1.
	// Ties break by insertion order (stable). A reachable-but-failing
	// backend yields an empty result with a logged warning, not an
	// error: the read path stays available in a degraded state.
	Search(ctx context.Context, query string, k int) ([]domain.Chunk, error)

	// SearchWithScores is Search plus the raw similarity per hit.
	SearchWithScores(ctx context.Context, query string, k int) ([]domain.RetrievalHit, error)

	// Clear irreversibly deletes all vectors and reinitializes the
	// collection empty. Safe to call when the collection does not exist.
	Clear(ctx context.Context) error

	// Info returns a read-only projection of collection state. Never
	// fails: an empty or uninitialized collection yields zero counts.
	Info(ctx context.Context) domain.CollectionInfo
}
