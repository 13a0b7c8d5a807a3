package services

import (
	"strings"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// Confidence estimates answer support from lexical overlap between the
// query and the retrieved chunks. The sum of per-hit overlaps is
// normalized by |query words| x |hits| and clamped to [0,1].
//
// This is an explicitly coarse heuristic, not a calibrated
// probability: it is monotonic in shared vocabulary and nothing more.
// Zero hits always score 0.
func Confidence(hits []domain.RetrievalHit, query string) float32 {
	if len(hits) == 0 {
		return 0
	}

	queryWords := wordSet(query)
	if len(queryWords) == 0 {
		return 0
	}

	totalOverlap := 0
	for _, hit := range hits {
		chunkWords := wordSet(hit.Chunk.Text)
		for w := range queryWords {
			if _, ok := chunkWords[w]; ok {
				totalOverlap++
			}
		}
	}

	maxPossible := len(queryWords) * len(hits)
	confidence := float32(totalOverlap) / float32(maxPossible)
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// wordSet returns the set of lowercase whitespace-separated words.
func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
