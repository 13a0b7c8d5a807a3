package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
)

// Ensure Docx implements TextExtractor
var _ driven.TextExtractor = (*Docx)(nil)

var (
	paragraphEndRe = regexp.MustCompile(`</w:p>`)
	xmlTagRe       = regexp.MustCompile(`<[^>]+>`)
)

// Docx extracts the text of Word documents. The library exposes the
// WordprocessingML body, so paragraph ends become newlines and the
// remaining markup is stripped.
type Docx struct{}

// NewDocx creates a DOCX extractor
func NewDocx() *Docx {
	return &Docx{}
}

// Extract reads the file and returns its decoded text
func (e *Docx) Extract(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	content = paragraphEndRe.ReplaceAllString(content, "\n")
	content = xmlTagRe.ReplaceAllString(content, "")
	content = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	).Replace(content)

	return strings.TrimSpace(content), nil
}

// SupportedTypes returns the file extensions this extractor handles
func (e *Docx) SupportedTypes() []string {
	return []string{".docx"}
}
