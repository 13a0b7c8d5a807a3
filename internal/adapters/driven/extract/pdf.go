package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
)

// Ensure PDF implements TextExtractor
var _ driven.TextExtractor = (*PDF)(nil)

// PDF extracts the plain text of PDF files, page by page.
type PDF struct{}

// NewPDF creates a PDF extractor
func NewPDF() *PDF {
	return &PDF{}
}

// Extract reads the file and returns its decoded text
func (e *PDF) Extract(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat pdf: %w", err)
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var b strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract pdf page %d: %w", i, err)
		}
		b.WriteString(pageText)
		b.WriteByte('\n')
	}

	return b.String(), nil
}

// SupportedTypes returns the file extensions this extractor handles
func (e *PDF) SupportedTypes() []string {
	return []string{".pdf"}
}
