package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ChunkMetadata carries the provenance of a chunk back to its source document.
type ChunkMetadata struct {
	SourcePath string `json:"source_path"`
	ChunkIndex int    `json:"chunk_index"` // Zero-based, unique within one source document
	FileName   string `json:"file_name"`
	FileType   string `json:"file_type"` // Lowercased extension, e.g. ".pdf"
}

// Provenance identifies the source document a chunk came from.
type Provenance struct {
	Path     string // Originating path in the documents folder
	FileType string // Lowercased extension, e.g. ".pdf"
}

// Chunk is a bounded-length excerpt of a source document.
// Chunks are created at ingestion time and immutable thereafter.
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Key returns the deduplication key for this chunk: a hash of the
// trimmed text. Two chunks with byte-identical trimmed text collide.
// Used both for batch-local dedup and as the stable vector ID, so the
// no-duplicates invariant of a collection holds across restarts.
func (c *Chunk) Key() string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(c.Text)))
	return hex.EncodeToString(sum[:])
}

// IsEmpty reports whether the chunk carries no indexable text.
func (c *Chunk) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// IngestReport summarises one ingestion batch (a single document or a
// whole folder). Individual file failures are recorded, not fatal.
type IngestReport struct {
	BatchID      string    `json:"batch_id"`
	FilesLoaded  int       `json:"files_loaded"`
	FilesSkipped int       `json:"files_skipped"`
	ChunksAdded  int       `json:"chunks_added"`
	Duplicates   int       `json:"duplicates"` // Dropped by batch-local or collection-level dedup
	Warnings     []string  `json:"warnings,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// CollectionInfo is a read-only projection of index state for monitoring.
type CollectionInfo struct {
	DocumentCount  int    `json:"document_count"`
	CollectionName string `json:"collection_name"`
}

// FolderStats describes the contents of a documents folder.
type FolderStats struct {
	TotalFiles   int            `json:"total_files"`
	FileTypes    map[string]int `json:"file_types"`
	TotalSizeMB  float64        `json:"total_size_mb"`
}
