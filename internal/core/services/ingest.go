package services

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driving"
)

// Ensure ingestService implements IngestService
var _ driving.IngestService = (*ingestService)(nil)

// ingestService implements the IngestService interface.
// Chunking is parallelized across files; all index mutations funnel
// through the single collection handle, which serializes them.
type ingestService struct {
	chunker    *Chunker
	extractors driven.ExtractorRegistry
	index      driven.VectorIndex
	logger     *slog.Logger

	// concurrency bounds parallel per-file chunking
	concurrency int
}

// NewIngestService creates a new IngestService
func NewIngestService(
	chunker *Chunker,
	extractors driven.ExtractorRegistry,
	index driven.VectorIndex,
	concurrency int,
	logger *slog.Logger,
) driving.IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ingestService{
		chunker:     chunker,
		extractors:  extractors,
		index:       index,
		logger:      logger,
		concurrency: concurrency,
	}
}

// IngestFile chunks and indexes one document
func (s *ingestService) IngestFile(ctx context.Context, path string) (*domain.IngestReport, error) {
	report := newReport()

	chunks, err := s.loadFile(path)
	if err != nil {
		return nil, err
	}
	report.FilesLoaded = 1

	res, err := s.index.Add(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("index add: %w", err)
	}
	report.ChunksAdded = res.Added
	report.Duplicates = res.Duplicates
	report.FinishedAt = time.Now().UTC()
	return report, nil
}

// IngestFolder walks the folder recursively and indexes every file
// with a recognized extension. Individual file failures are recorded
// as warnings and skipped; the batch always completes. A missing
// folder is created and yields an empty report.
func (s *ingestService) IngestFolder(ctx context.Context, folder string) (*domain.IngestReport, error) {
	report := newReport()

	if _, err := os.Stat(folder); os.IsNotExist(err) {
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return nil, fmt.Errorf("create documents folder: %w", err)
		}
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	paths, err := s.collectPaths(folder, report)
	if err != nil {
		return nil, err
	}

	chunksByFile := s.chunkFiles(paths, report)

	// Batch-local dedup across files, preserving file order. The index
	// enforces the collection-level invariant on top of this.
	seen := make(map[string]struct{})
	var batch []domain.Chunk
	for _, chunks := range chunksByFile {
		for _, chunk := range chunks {
			key := chunk.Key()
			if _, ok := seen[key]; ok {
				report.Duplicates++
				continue
			}
			seen[key] = struct{}{}
			batch = append(batch, chunk)
		}
	}

	if len(batch) > 0 {
		res, err := s.index.Add(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("index add: %w", err)
		}
		report.ChunksAdded = res.Added
		report.Duplicates += res.Duplicates
	}

	report.FinishedAt = time.Now().UTC()
	s.logger.Info("folder ingested",
		"folder", folder,
		"files", report.FilesLoaded,
		"skipped", report.FilesSkipped,
		"chunks", report.ChunksAdded,
		"duplicates", report.Duplicates,
	)
	return report, nil
}

// Rebuild clears the collection and re-ingests the folder from scratch
func (s *ingestService) Rebuild(ctx context.Context, folder string) (*domain.IngestReport, error) {
	if err := s.index.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear index: %w", err)
	}
	return s.IngestFolder(ctx, folder)
}

// Info returns collection stats without mutating state
func (s *ingestService) Info(ctx context.Context) domain.CollectionInfo {
	return s.index.Info(ctx)
}

// Clear deletes all indexed vectors
func (s *ingestService) Clear(ctx context.Context) error {
	return s.index.Clear(ctx)
}

// FolderStats reports file counts and sizes for a documents folder
func (s *ingestService) FolderStats(folder string) (domain.FolderStats, error) {
	stats := domain.FolderStats{FileTypes: make(map[string]int)}

	if _, err := os.Stat(folder); os.IsNotExist(err) {
		return stats, nil
	}

	var totalSize int64
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stats.TotalFiles++
		stats.FileTypes[strings.ToLower(filepath.Ext(path))]++
		totalSize += info.Size()
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk folder: %w", err)
	}

	stats.TotalSizeMB = float64(totalSize) / (1024 * 1024)
	return stats, nil
}

// collectPaths gathers recognized files in deterministic order.
func (s *ingestService) collectPaths(folder string, report *domain.IngestReport) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", path, err))
			report.FilesSkipped++
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if s.extractors.Get(ext) == nil {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk folder: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// chunkFiles extracts and chunks files concurrently, bounded by the
// configured concurrency. Results keep the input path order.
func (s *ingestService) chunkFiles(paths []string, report *domain.IngestReport) [][]domain.Chunk {
	results := make([][]domain.Chunk, len(paths))
	errs := make([]error, len(paths))

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = s.loadFile(path)
		}(i, path)
	}
	wg.Wait()

	var out [][]domain.Chunk
	for i, path := range paths {
		if errs[i] != nil {
			s.logger.Warn("skipping file", "path", path, "error", errs[i])
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", path, errs[i]))
			report.FilesSkipped++
			continue
		}
		report.FilesLoaded++
		out = append(out, results[i])
	}
	return out
}

// loadFile extracts text from one file and splits it into chunks.
func (s *ingestService) loadFile(path string) ([]domain.Chunk, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor := s.extractors.Get(ext)
	if extractor == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, ext)
	}

	text, err := extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	return s.chunker.Split(text, domain.Provenance{Path: path, FileType: ext})
}

func newReport() *domain.IngestReport {
	return &domain.IngestReport{
		BatchID:   uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}
