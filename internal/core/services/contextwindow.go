package services

import (
	"strings"
	"unicode/utf8"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// DefaultMaxContextLength is the context window budget in characters.
const DefaultMaxContextLength = 1500

// minTailBudget is the smallest remaining budget worth spending on a
// truncated prefix of the next chunk.
const minTailBudget = 100

// AssembleContext greedily packs ranked hits into a bounded-length
// context string, separated by blank lines. Packing is first-fit in
// rank order: hits are never reordered and a fitting hit is never
// skipped in favour of a later one, trading packing efficiency for
// top-ranked relevance. When the next chunk would overflow but more
// than 100 characters of budget remain, a truncated prefix of it is
// appended with an ellipsis marker.
func AssembleContext(hits []domain.RetrievalHit, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}

	var parts []string
	currentLength := 0

	for _, hit := range hits {
		content := hit.Chunk.Text
		if currentLength+len(content) > maxLength {
			remaining := maxLength - currentLength
			if remaining > minTailBudget {
				parts = append(parts, truncateUTF8(content, remaining)+"...")
			}
			break
		}
		parts = append(parts, content)
		currentLength += len(content)
	}

	return strings.Join(parts, "\n\n")
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
