package domain

import "time"

// QueryMode is the classified response mode for a query.
type QueryMode string

const (
	QueryModeStandard    QueryMode = "standard_qa"   // Direct answer
	QueryModeStepByStep  QueryMode = "step_by_step"  // Numbered step list
	QueryModeGenerateSOP QueryMode = "generate_sop"  // New-procedure draft
	QueryModeFallback    QueryMode = "fallback"      // No usable context
)

// IsStepOriented reports whether answers in this mode should be
// formatted as an ordered step list.
func (m QueryMode) IsStepOriented() bool {
	return m == QueryModeStepByStep || m == QueryModeGenerateSOP
}

// RetrievalHit is one ranked retrieval result. Score is cosine
// similarity in [0,1], higher is better. Hits are transient, produced
// per query and never persisted.
type RetrievalHit struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// Outcome identifies which synthesis stage produced the answer.
type Outcome string

const (
	OutcomeGenerated Outcome = "generated" // Generative model produced the answer
	OutcomeExtracted Outcome = "extracted" // Deterministic extraction from context
	OutcomeEmpty     Outcome = "empty"     // No context available at all
)

// QueryResult is the answer to one query.
// Confidence is a lexical-overlap heuristic in [0,1], not a calibrated
// probability; treat it as a coarse support signal only.
type QueryResult struct {
	Answer     string        `json:"answer"`
	Sources    []string      `json:"sources"` // Distinct file names across all hits
	Confidence float32       `json:"confidence"`
	Mode       QueryMode     `json:"mode"`
	Outcome    Outcome       `json:"outcome"`
	Took       time.Duration `json:"took"`
}

// QueryOptions configures one query call.
type QueryOptions struct {
	TopK int `json:"top_k"` // Number of chunks to retrieve
}

// DefaultQueryOptions returns sensible defaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{TopK: 5}
}

// HistoryEntry records one answered query for audit purposes.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Sources   []string  `json:"sources"`
	Mode      QueryMode `json:"mode"`
	AskedAt   time.Time `json:"asked_at"`
}
