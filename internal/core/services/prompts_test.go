package services

import (
	"strings"
	"testing"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		mode domain.QueryMode
		cue  string
	}{
		{domain.QueryModeStandard, "Answer:"},
		{domain.QueryModeStepByStep, "Steps:"},
		{domain.QueryModeGenerateSOP, "Procedure:"},
	}

	for _, tt := range tests {
		prompt := BuildPrompt(tt.mode, "some retrieved context", "the question")
		if !strings.Contains(prompt, "some retrieved context") {
			t.Errorf("BuildPrompt(%q) missing context", tt.mode)
		}
		if !strings.Contains(prompt, "the question") {
			t.Errorf("BuildPrompt(%q) missing query", tt.mode)
		}
		if !strings.HasSuffix(prompt, tt.cue) {
			t.Errorf("BuildPrompt(%q) must end with cue %q", tt.mode, tt.cue)
		}
	}
}

func TestBuildPromptUnknownMode(t *testing.T) {
	prompt := BuildPrompt(domain.QueryMode("mystery"), "ctx", "q")
	if !strings.HasSuffix(prompt, "Answer:") {
		t.Errorf("unknown mode must use the standard template, got %q", prompt)
	}
}
