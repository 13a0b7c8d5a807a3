package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidChunking indicates an invalid chunker configuration
	// (e.g. overlap >= chunk size). Fatal at construction time.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrUnsupportedFileType indicates no extractor is registered for the file type
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrExtractionFailed indicates a source document could not be decoded.
	// Recorded and skipped during batch ingestion, never fatal to the batch.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrIndexUnavailable indicates the vector index backend is unreachable
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service failed or is not configured
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrGenerationUnavailable indicates the generative model failed or is not configured
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
