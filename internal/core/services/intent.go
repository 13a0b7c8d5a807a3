package services

import (
	"strings"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

// IntentRule maps a set of lexical markers to a response mode.
type IntentRule struct {
	Markers []string
	Mode    domain.QueryMode
}

// defaultIntentRules is the ordered rule table for intent
// classification. Rules are checked in order and the first rule with a
// matching marker wins, so step-oriented markers take precedence over
// generation markers when both are present.
var defaultIntentRules = []IntentRule{
	{
		Markers: []string{
			"how to", "step by step", "procedure", "process",
			"instructions", "guide", "walkthrough", "tutorial",
		},
		Mode: domain.QueryModeStepByStep,
	},
	{
		Markers: []string{
			"create sop", "generate sop", "new procedure",
			"write procedure", "draft sop", "develop procedure",
		},
		Mode: domain.QueryModeGenerateSOP,
	},
}

// IntentClassifier maps a raw query string to a response mode.
// Deliberately a deterministic rule table rather than a statistical
// classifier: misclassification only changes prompt phrasing, never
// retrieval correctness.
type IntentClassifier struct {
	rules []IntentRule
}

// NewIntentClassifier creates a classifier with the default rule table
func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{rules: defaultIntentRules}
}

// NewIntentClassifierWithRules creates a classifier with a custom
// ordered rule table. Used by tests to probe rule ordering.
func NewIntentClassifierWithRules(rules []IntentRule) *IntentClassifier {
	return &IntentClassifier{rules: rules}
}

// Classify returns the response mode for a query. Queries matching no
// rule are standard Q&A.
func (c *IntentClassifier) Classify(query string) domain.QueryMode {
	q := strings.ToLower(query)
	for _, rule := range c.rules {
		for _, marker := range rule.Markers {
			if strings.Contains(q, marker) {
				return rule.Mode
			}
		}
	}
	return domain.QueryModeStandard
}
