package driven

import (
	"context"
)

// DecodingParams are fixed decoding parameters for one generation call.
type DecodingParams struct {
	// MaxNewTokens bounds the length of the completion
	MaxNewTokens int

	// Temperature controls sampling randomness; 0 is deterministic
	Temperature float32

	// RepetitionPenalty discourages verbatim repetition (1.0 = off).
	// Providers that do not support it ignore the field.
	RepetitionPenalty float32
}

// DefaultDecodingParams returns the parameters used for answer synthesis:
// a bounded completion with a mild repetition penalty.
func DefaultDecodingParams() DecodingParams {
	return DecodingParams{
		MaxNewTokens:      256,
		Temperature:       0,
		RepetitionPenalty: 1.1,
	}
}

// GenerationService drives a generative language model.
// Both calls may block for model-inference wall-clock time; callers
// apply their own timeout via ctx.
type GenerationService interface {
	// Generate produces a completion for the prompt
	Generate(ctx context.Context, prompt string, params DecodingParams) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the generative model is available
	Ping(ctx context.Context) error

	// Close releases resources held by the generation service
	Close() error
}
