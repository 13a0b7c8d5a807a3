package driven

// TextExtractor decodes one binary document format into plain text.
// The core never parses document formats itself; it only consumes
// already-decoded text through this port.
type TextExtractor interface {
	// Extract reads the file and returns its decoded text
	Extract(path string) (string, error)

	// SupportedTypes returns the file extensions this extractor handles,
	// lowercased with leading dot (e.g. ".pdf")
	SupportedTypes() []string
}

// ExtractorRegistry resolves an extractor for a file type.
type ExtractorRegistry interface {
	// Register registers an extractor
	Register(extractor TextExtractor)

	// Get retrieves the extractor for a file extension.
	// Returns nil if none is registered for the type.
	Get(fileType string) TextExtractor

	// Supported returns all registered extensions, sorted
	Supported() []string
}
