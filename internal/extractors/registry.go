package extractors

import (
	"sort"
	"strings"
	"sync"

	"github.com/opsdocs-labs/sopqa-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry implements ExtractorRegistry with last-registration-wins
// selection per extension.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.TextExtractor
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make([]driven.TextExtractor, 0),
	}
}

// Register registers an extractor.
func (r *Registry) Register(extractor driven.TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors = append(r.extractors, extractor)
}

// Get retrieves the extractor for a file extension.
// Returns nil if no extractor is registered for the type.
// When multiple match, the most recently registered one is used.
func (r *Registry) Get(fileType string) driven.TextExtractor {
	fileType = normalizeExt(fileType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.extractors) - 1; i >= 0; i-- {
		for _, t := range r.extractors[i].SupportedTypes() {
			if normalizeExt(t) == fileType {
				return r.extractors[i]
			}
		}
	}
	return nil
}

// Supported returns all registered extensions, sorted.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeSet := make(map[string]struct{})
	for _, e := range r.extractors {
		for _, t := range e.SupportedTypes() {
			typeSet[normalizeExt(t)] = struct{}{}
		}
	}

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// normalizeExt lowercases an extension and ensures the leading dot.
func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
