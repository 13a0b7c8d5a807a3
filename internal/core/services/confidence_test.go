package services

import (
	"testing"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
)

func TestConfidenceZeroHits(t *testing.T) {
	if got := Confidence(nil, "any question"); got != 0 {
		t.Errorf("Confidence(no hits) = %v, want 0", got)
	}
}

func TestConfidenceEmptyQuery(t *testing.T) {
	hits := []domain.RetrievalHit{hitWithText("some chunk text")}
	if got := Confidence(hits, "   "); got != 0 {
		t.Errorf("Confidence(empty query) = %v, want 0", got)
	}
}

func TestConfidenceFullOverlap(t *testing.T) {
	hits := []domain.RetrievalHit{hitWithText("wear safety goggles")}
	if got := Confidence(hits, "wear safety goggles"); got != 1 {
		t.Errorf("Confidence(full overlap) = %v, want 1", got)
	}
}

func TestConfidencePartialOverlap(t *testing.T) {
	// 2 of 4 query words appear in the single hit
	hits := []domain.RetrievalHit{hitWithText("goggles protect your eyes")}
	got := Confidence(hits, "why wear goggles eyes")
	if got != 0.5 {
		t.Errorf("Confidence() = %v, want 0.5", got)
	}
}

func TestConfidenceNormalizedByHitCount(t *testing.T) {
	matching := hitWithText("inspect the valve")
	unrelated := hitWithText("unrelated content entirely")

	one := Confidence([]domain.RetrievalHit{matching}, "inspect the valve")
	two := Confidence([]domain.RetrievalHit{matching, unrelated}, "inspect the valve")
	if two >= one {
		t.Errorf("adding a non-matching hit must lower confidence: one=%v two=%v", one, two)
	}
}

func TestConfidenceMonotonicInOverlap(t *testing.T) {
	query := "how to store flammable liquids safely"
	weak := []domain.RetrievalHit{hitWithText("liquids go in the cabinet")}
	strong := []domain.RetrievalHit{hitWithText("store flammable liquids safely in the cabinet")}

	if Confidence(strong, query) <= Confidence(weak, query) {
		t.Error("more shared vocabulary must not lower confidence")
	}
}

func TestConfidenceCaseInsensitive(t *testing.T) {
	hits := []domain.RetrievalHit{hitWithText("WEAR SAFETY GOGGLES")}
	if got := Confidence(hits, "wear safety goggles"); got != 1 {
		t.Errorf("Confidence() = %v, want 1 regardless of case", got)
	}
}
