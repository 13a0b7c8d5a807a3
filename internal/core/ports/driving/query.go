package driving

import (
	"context"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// QueryService answers natural-language questions against the indexed corpus
type QueryService interface {
	// Query classifies the question, retrieves context and synthesizes
	// an answer. Always returns a QueryResult, even with no generative
	// model and an empty index; the worst case is a fallback answer
	// with confidence 0.
	Query(ctx context.Context, text string, opts domain.QueryOptions) (*domain.QueryResult, error)
}
