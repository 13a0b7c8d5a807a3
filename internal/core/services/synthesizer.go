package services

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/opsdocs-labs/sopqa-core/internal/core/domain"
	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
	"github.com/opsdocs-labs/sopqa-core/internal/runtime"
)

// NoInformationAnswer is returned when retrieval produced no usable context.
const NoInformationAnswer = "No relevant information was found in the indexed documents."

// minAnswerWords is the degenerate-generation threshold: a generated
// answer shorter than this is discarded in favour of extraction.
const minAnswerWords = 5

// minPassageLen is the shortest fragment kept as a standalone passage.
const minPassageLen = 15

// maxSelectedPassages bounds the extractive answer length.
const maxSelectedPassages = 8

// proceduralKeywords get double weight when scoring passages for
// step-oriented intents.
var proceduralKeywords = map[string]struct{}{
	"step": {}, "steps": {}, "first": {}, "then": {}, "next": {},
	"finally": {}, "before": {}, "after": {}, "ensure": {}, "verify": {},
	"check": {}, "must": {}, "shall": {}, "complete": {}, "perform": {},
	"procedure": {}, "process": {},
}

// domainTerms is a fixed set of operations/safety vocabulary that marks
// a passage as likely relevant regardless of direct query overlap.
var domainTerms = map[string]struct{}{
	"safety": {}, "equipment": {}, "maintenance": {}, "inspection": {},
	"hazard": {}, "ppe": {}, "lockout": {}, "tagout": {}, "permit": {},
	"training": {}, "emergency": {}, "compliance": {}, "protective": {},
	"authorized": {}, "documentation": {},
}

// listMarkerRe matches numeric list markers at the start of a passage.
var listMarkerRe = regexp.MustCompile(`^\s*\d+[.)]\s`)

// subMarkerRe matches roman or alpha sub-point markers.
var subMarkerRe = regexp.MustCompile(`^\s*(?:[ivxIVX]+|[a-hA-H])[.)]\s`)

// Synthesizer produces the final answer for a query: a generative step
// driven by an intent-specific prompt, with a deterministic extractive
// fallback when generation is unavailable, fails, or returns a
// degenerate answer.
type Synthesizer struct {
	services         *runtime.Services
	logger           *slog.Logger
	maxContextLength int
}

// NewSynthesizer creates a Synthesizer. The generative model is looked
// up dynamically via runtime services on every call, so it can be
// configured, replaced, or absent at any point.
func NewSynthesizer(services *runtime.Services, maxContextLength int, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	if maxContextLength <= 0 {
		maxContextLength = DefaultMaxContextLength
	}
	return &Synthesizer{
		services:         services,
		logger:           logger,
		maxContextLength: maxContextLength,
	}
}

// Synthesize runs the answer pipeline for one request:
// BuildContext -> {Generate | ExtractFallback} -> Clean -> Score.
// It always returns a result; total model absence degrades to source
// excerpts with confidence computed the same way.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, mode domain.QueryMode, hits []domain.RetrievalHit) *domain.QueryResult {
	result := &domain.QueryResult{
		Mode:       mode,
		Sources:    sourceNames(hits),
		Confidence: Confidence(hits, query),
	}

	contextText := AssembleContext(hits, s.maxContextLength)
	if strings.TrimSpace(contextText) == "" {
		result.Mode = domain.QueryModeFallback
		result.Outcome = domain.OutcomeEmpty
		result.Answer = NoInformationAnswer
		return result
	}

	if answer, ok := s.generate(ctx, query, mode, contextText); ok {
		result.Answer = answer
		result.Outcome = domain.OutcomeGenerated
		return result
	}

	result.Answer = cleanAnswer(extractAnswer(contextText, query, mode))
	result.Outcome = domain.OutcomeExtracted
	return result
}

// generate attempts the generative step. Returns ok=false when the
// model is absent, the call fails, or the cleaned answer is degenerate
// (<5 words); the caller then extracts from the same context.
func (s *Synthesizer) generate(ctx context.Context, query string, mode domain.QueryMode, contextText string) (string, bool) {
	gen := s.services.GenerationService()
	if gen == nil {
		return "", false
	}

	prompt := BuildPrompt(mode, contextText, query)
	raw, err := gen.Generate(ctx, prompt, driven.DefaultDecodingParams())
	if err != nil {
		s.logger.Warn("generation failed, using extractive fallback", "model", gen.Model(), "error", err)
		return "", false
	}

	answer := cleanAnswer(strings.TrimSpace(raw))
	if len(strings.Fields(answer)) < minAnswerWords {
		s.logger.Warn("generated answer degenerate, using extractive fallback", "model", gen.Model(), "words", len(strings.Fields(answer)))
		return "", false
	}
	return answer, true
}

// sourceNames returns the distinct file names across all hits, in
// first-appearance order. All supplied hits count, not only those
// whose text made it into the final answer.
func sourceNames(hits []domain.RetrievalHit) []string {
	seen := make(map[string]struct{}, len(hits))
	var names []string
	for _, hit := range hits {
		name := hit.Chunk.Metadata.FileName
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// extractAnswer is the deterministic extractive fallback. It is fully
// reproducible without any generative model: passages from the context
// are scored by lexical overlap with the query (procedural keywords
// doubled for step intents, plus a fixed domain-term bonus), ranked,
// and formatted per the response mode.
func extractAnswer(contextText, query string, mode domain.QueryMode) string {
	passages := splitPassages(contextText)
	if len(passages) == 0 {
		return NoInformationAnswer
	}
	passages = dedupePassages(passages)

	queryWords := contentWords(query)

	type scored struct {
		text  string
		score int
	}
	var ranked []scored
	for _, p := range passages {
		sc := scorePassage(p, queryWords, mode)
		if sc > 0 {
			ranked = append(ranked, scored{text: p, score: sc})
		}
	}

	if len(ranked) == 0 {
		// Nothing overlapped: surface the leading passages verbatim
		n := 3
		if len(passages) < n {
			n = len(passages)
		}
		return strings.Join(passages[:n], " ")
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > maxSelectedPassages {
		ranked = ranked[:maxSelectedPassages]
	}

	selected := make([]string, len(ranked))
	for i, r := range ranked {
		selected[i] = r.text
	}

	if mode.IsStepOriented() {
		return formatSteps(selected)
	}
	return formatNarrative(selected)
}

// splitPassages cuts the context into candidate passages. Line-based
// splitting is preferred, with short fragment lines merged into their
// neighbours; contexts without line structure split on sentence
// terminators, discarding short fragments.
func splitPassages(text string) []string {
	if strings.Contains(text, "\n") {
		return mergeShortLines(strings.Split(text, "\n"))
	}

	var passages []string
	for _, s := range splitSentences(text) {
		if len(s) > minPassageLen {
			passages = append(passages, s)
		}
	}
	return passages
}

// mergeShortLines folds fragment lines (shorter than minPassageLen)
// into the preceding passage, or the following one when there is no
// preceding passage yet.
func mergeShortLines(lines []string) []string {
	var passages []string
	var pending string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if pending != "" {
			line = pending + " " + line
			pending = ""
		}
		if len(line) < minPassageLen {
			if len(passages) > 0 {
				passages[len(passages)-1] += " " + line
			} else {
				pending = line
			}
			continue
		}
		passages = append(passages, line)
	}
	if pending != "" {
		passages = append(passages, pending)
	}
	return passages
}

// splitSentences splits on sentence terminators, keeping text only.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// dedupePassages drops passages whose whitespace-normalized,
// case-folded form repeats an earlier one.
func dedupePassages(passages []string) []string {
	seen := make(map[string]struct{}, len(passages))
	var out []string
	for _, p := range passages {
		key := strings.Join(strings.Fields(strings.ToLower(p)), " ")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// scorePassage counts query-word overlap (words longer than 2 chars),
// procedural-keyword overlap at double weight for step intents, and
// domain-term overlap.
func scorePassage(passage string, queryWords map[string]struct{}, mode domain.QueryMode) int {
	words := contentWords(passage)

	score := 0
	for w := range words {
		if _, ok := queryWords[w]; ok {
			score++
		}
		if mode.IsStepOriented() {
			if _, ok := proceduralKeywords[w]; ok {
				score += 2
			}
		}
		if _, ok := domainTerms[w]; ok {
			score++
		}
	}
	return score
}

// contentWords returns the set of lowercase words longer than 2 chars,
// stripped of surrounding punctuation.
func contentWords(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?()[]\"'")
		if len(f) > 2 {
			set[f] = struct{}{}
		}
	}
	return set
}

// formatSteps numbers the selected passages sequentially. Passages
// that already carry a numeric list marker keep it; roman/alpha
// sub-markers are preserved as indented sub-points.
func formatSteps(passages []string) string {
	var lines []string
	n := 1
	for _, p := range passages {
		switch {
		case listMarkerRe.MatchString(p):
			lines = append(lines, strings.TrimSpace(p))
		case subMarkerRe.MatchString(p):
			lines = append(lines, "   "+strings.TrimSpace(p))
		default:
			lines = append(lines, strconv.Itoa(n)+". "+strings.TrimSpace(p))
			n++
		}
	}
	return strings.Join(lines, "\n")
}

// formatNarrative joins passages as a punctuated narrative.
func formatNarrative(passages []string) string {
	out := make([]string, len(passages))
	for i, p := range passages {
		p = strings.TrimSpace(p)
		if p != "" && !strings.ContainsAny(p[len(p)-1:], ".!?") {
			p += "."
		}
		out[i] = p
	}
	return strings.Join(out, " ")
}

// cleanAnswer removes duplicate lines or sentences and trims trailing
// sentence fragments. A missing terminal mark is repaired only when a
// terminator exists in the final 30% of the text; otherwise the text
// is kept rather than truncated aggressively.
func cleanAnswer(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	if strings.Contains(text, "\n") {
		text = dedupeExact(strings.Split(text, "\n"), "\n")
	} else {
		text = dedupeExact(splitSentences(text), " ")
	}

	if strings.ContainsAny(text[len(text)-1:], ".!?") {
		return text
	}
	last := strings.LastIndexAny(text, ".!?")
	if last >= 0 && float64(last) >= float64(len(text))*0.7 {
		return text[:last+1]
	}
	return text
}

// dedupeExact keeps the first occurrence of each exact part.
func dedupeExact(parts []string, sep string) string {
	seen := make(map[string]struct{}, len(parts))
	var out []string
	for _, p := range parts {
		p = strings.TrimRight(p, " ")
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, sep)
}
