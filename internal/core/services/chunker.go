package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// Default chunking geometry, matching the ingestion defaults.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits raw extracted text into overlapping, metadata-tagged,
// deduplicated chunks. Splitting prefers paragraph and sentence
// boundaries, falling back to hard character cuts.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	splitter     textsplitter.RecursiveCharacter
}

// NewChunker creates a Chunker. Overlap must be strictly smaller than
// the chunk size; violating that is a configuration error reported
// here, never at call time.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidChunking, chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap %d must not be negative", domain.ErrInvalidChunking, chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", domain.ErrInvalidChunking, chunkOverlap, chunkSize)
	}

	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}, nil
}

// ChunkSize returns the configured maximum chunk length in characters
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// ChunkOverlap returns the configured overlap length in characters
func (c *Chunker) ChunkOverlap() int { return c.chunkOverlap }

// Split produces the chunk sequence for one source document.
// Chunk indices are zero-based and scoped to the document; a chunk
// whose trimmed text repeats an earlier chunk of the same document is
// dropped. Empty or whitespace-only input yields an empty sequence,
// which is not an error.
func (c *Chunker) Split(sourceText string, prov domain.Provenance) ([]domain.Chunk, error) {
	if strings.TrimSpace(sourceText) == "" {
		return nil, nil
	}

	parts, err := c.splitter.SplitText(sourceText)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	meta := domain.ChunkMetadata{
		SourcePath: prov.Path,
		FileName:   filepath.Base(prov.Path),
		FileType:   strings.ToLower(prov.FileType),
	}

	seen := make(map[string]struct{}, len(parts))
	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		chunk := domain.Chunk{Text: part, Metadata: meta}
		chunk.Metadata.ChunkIndex = i
		if chunk.IsEmpty() {
			continue
		}
		key := chunk.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}
