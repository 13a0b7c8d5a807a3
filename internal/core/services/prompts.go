package services

import (
	"fmt"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// promptTemplate builds the generation prompt for one response mode.
// Each template ends in an instruction-completion cue so the model
// continues the answer rather than restating the question.
type promptTemplate func(context, query string) string

var promptTemplates = map[domain.QueryMode]promptTemplate{
	domain.QueryModeStandard: func(context, query string) string {
		return fmt.Sprintf(
			"Answer the question using only the information provided below.\n\n%s\n\nQuestion: %s\nAnswer:",
			context, query)
	},
	domain.QueryModeStepByStep: func(context, query string) string {
		return fmt.Sprintf(
			"Using only the information provided below, list the steps needed to answer the question, in order.\n\n%s\n\nQuestion: %s\nSteps:",
			context, query)
	},
	domain.QueryModeGenerateSOP: func(context, query string) string {
		return fmt.Sprintf(
			"Using only the information provided below, draft a standard operating procedure that addresses the request. Include purpose, required equipment and ordered steps.\n\n%s\n\nRequest: %s\nProcedure:",
			context, query)
	},
}

// BuildPrompt returns the intent-specific generation prompt.
// Unknown modes fall back to the standard template.
func BuildPrompt(mode domain.QueryMode, context, query string) string {
	tmpl, ok := promptTemplates[mode]
	if !ok {
		tmpl = promptTemplates[domain.QueryModeStandard]
	}
	return tmpl(context, query)
}
