package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/lib/pq"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
	rt "github.com/opsdocs-labs/sopqa-core/internal/runtime"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Index implements VectorIndex on PostgreSQL with the pgvector
// extension. The chunks' content-hash keys are the primary key, so the
// no-duplicate-text invariant is enforced by the database itself and
// holds across restarts and across concurrent writers.
type Index struct {
	mu sync.RWMutex

	db       *DB
	services *rt.Services
	logger   *slog.Logger
}

// NewIndex creates a pgvector-backed index on an initialized schema.
func NewIndex(db *DB, services *rt.Services, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{db: db, services: services, logger: logger}
}

// Add embeds and inserts chunks. Texts already present in the table
// are counted as duplicates without being re-embedded.
func (i *Index) Add(ctx context.Context, chunks []domain.Chunk) (driven.AddResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var res driven.AddResult
	var fresh []domain.Chunk
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
		fresh = append(fresh, chunk)
		keys = append(keys, key)
	}
	if len(fresh) == 0 {
		return res, nil
	}

	existing, err := i.existingKeys(ctx, keys)
	if err != nil {
		return res, fmt.Errorf("%w: check existing chunks: %v", domain.ErrIndexUnavailable, err)
	}

	var toEmbed []domain.Chunk
	for _, chunk := range fresh {
		if _, ok := existing[chunk.Key()]; ok {
			res.Duplicates++
			continue
		}
		toEmbed = append(toEmbed, chunk)
	}
	if len(toEmbed) == 0 {
		return res, nil
	}

	embedder := i.services.EmbeddingService()
	if embedder == nil {
		return res, fmt.Errorf("%w: no embedding service configured", domain.ErrIndexUnavailable)
	}

	texts := make([]string, len(toEmbed))
	for n, chunk := range toEmbed {
		texts[n] = chunk.Text
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return res, fmt.Errorf("%w: embed chunks: %v", domain.ErrIndexUnavailable, err)
	}
	if len(vectors) != len(toEmbed) {
		return res, fmt.Errorf("%w: embedder returned %d vectors for %d chunks", domain.ErrIndexUnavailable, len(vectors), len(toEmbed))
	}

	err = i.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (content_hash, content, source_path, chunk_index, file_name, file_type, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
			ON CONFLICT (content_hash) DO NOTHING
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for n, chunk := range toEmbed {
			_, err := stmt.ExecContext(ctx,
				chunk.Key(),
				chunk.Text,
				chunk.Metadata.SourcePath,
				chunk.Metadata.ChunkIndex,
				chunk.Metadata.FileName,
				chunk.Metadata.FileType,
				vectorLiteral(vectors[n]),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("%w: insert chunks: %v", domain.ErrIndexUnavailable, err)
	}

	res.Added = len(toEmbed)
	return res, nil
}

func (i *Index) existingKeys(ctx context.Context, keys []string) (map[string]struct{}, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT content_hash FROM chunks WHERE content_hash = ANY($1)`,
		pq.Array(keys),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		existing[key] = struct{}{}
	}
	return existing, rows.Err()
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

// SearchWithScores ranks by cosine similarity, higher is better, ties
// broken by insertion order. Backend failures degrade to an empty
// result with a logged warning.
func (i *Index) SearchWithScores(ctx context.Context, query string, k int) ([]domain.RetrievalHit, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1", domain.ErrInvalidInput)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	embedder := i.services.EmbeddingService()
	if embedder == nil {
		i.logger.Warn("similarity search skipped, no embedding service configured")
		return nil, nil
	}
	vector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		i.logger.Warn("query embedding failed, returning empty result", "error", err)
		return nil, nil
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT content, source_path, chunk_index, file_name, file_type,
		       1 - (embedding <=> $1::vector) AS similarity
		FROM chunks
		ORDER BY embedding <=> $1::vector ASC, position ASC
		LIMIT $2
	`, vectorLiteral(vector), k)
	if err != nil {
		i.logger.Warn("similarity search failed, returning empty result", "error", err)
		return nil, nil
	}
	defer rows.Close()

	var hits []domain.RetrievalHit
	for rows.Next() {
		var chunk domain.Chunk
		var similarity float64
		err := rows.Scan(
			&chunk.Text,
			&chunk.Metadata.SourcePath,
			&chunk.Metadata.ChunkIndex,
			&chunk.Metadata.FileName,
			&chunk.Metadata.FileType,
			&similarity,
		)
		if err != nil {
			i.logger.Warn("similarity search scan failed, returning empty result", "error", err)
			return nil, nil
		}
		hits = append(hits, domain.RetrievalHit{Chunk: chunk, Score: clampScore(similarity)})
	}
	if err := rows.Err(); err != nil {
		i.logger.Warn("similarity search failed, returning empty result", "error", err)
		return nil, nil
	}
	return hits, nil
}

// Clear deletes all indexed vectors. Safe on an empty table.
func (i *Index) Clear(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, err := i.db.ExecContext(ctx, `TRUNCATE chunks`); err != nil {
		return fmt.Errorf("%w: truncate chunks: %v", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Info returns collection stats. Never fails; an unreachable database
// yields zero counts.
func (i *Index) Info(ctx context.Context) domain.CollectionInfo {
	i.mu.RLock()
	defer i.mu.RUnlock()

	info := domain.CollectionInfo{CollectionName: "chunks"}
	row := i.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`)
	if err := row.Scan(&info.DocumentCount); err != nil {
		i.logger.Warn("collection count failed", "error", err)
	}
	return info
}

// vectorLiteral renders a vector in pgvector's textual input format.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for n, f := range v {
		if n > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// clampScore maps cosine similarity into [0,1]. Raw cosine can be
// negative for opposed vectors; those carry no retrieval signal.
func clampScore(similarity float64) float32 {
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return float32(similarity)
}
