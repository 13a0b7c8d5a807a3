package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
)

// Ensure TextFile implements TextExtractor
var _ driven.TextExtractor = (*TextFile)(nil)

// TextFile extracts plain-text files as-is.
type TextFile struct{}

// NewTextFile creates a plain-text extractor
func NewTextFile() *TextFile {
	return &TextFile{}
}

// Extract reads the file and returns its decoded text
func (e *TextFile) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	// Strip a UTF-8 BOM if present
	return strings.TrimPrefix(string(data), "\uFEFF"), nil
}

// SupportedTypes returns the file extensions this extractor handles
func (e *TextFile) SupportedTypes() []string {
	return []string{".txt"}
}
