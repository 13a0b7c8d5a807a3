package driving

import (
	"context"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// IngestService loads documents into the similarity index
type IngestService interface {
	// IngestFile chunks and indexes one document
	IngestFile(ctx context.Context, path string) (*domain.IngestReport, error)

	// IngestFolder walks a folder recursively, indexing every file with
	// a recognized extension. An unreadable or unsupported file is
	// skipped with a recorded warning; the batch always completes.
	IngestFolder(ctx context.Context, folder string) (*domain.IngestReport, error)

	// Rebuild clears the collection and re-ingests the folder from scratch
	Rebuild(ctx context.Context, folder string) (*domain.IngestReport, error)

	// Info returns collection stats without mutating state
	Info(ctx context.Context) domain.CollectionInfo

	// Clear deletes all indexed vectors
	Clear(ctx context.Context) error

	// FolderStats reports file counts and sizes for a documents folder
	FolderStats(folder string) (domain.FolderStats, error)
}
