package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
)

// Ensure Markdown implements TextExtractor
var _ driven.TextExtractor = (*Markdown)(nil)

// Markdown extracts the text content of Markdown files, dropping
// formatting but keeping block structure as line breaks so the chunker
// can still split on paragraph boundaries.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates a Markdown extractor
func NewMarkdown() *Markdown {
	return &Markdown{md: goldmark.New()}
}

// Extract reads the file and returns its decoded text
func (e *Markdown) Extract(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read markdown file: %w", err)
	}

	doc := e.md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		default:
			// Separate blocks with blank lines
			if n.Type() == ast.TypeBlock && b.Len() > 0 {
				b.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("walk markdown ast: %w", err)
	}

	return strings.TrimSpace(b.String()), nil
}

// SupportedTypes returns the file extensions this extractor handles
func (e *Markdown) SupportedTypes() []string {
	return []string{".md", ".markdown"}
}
