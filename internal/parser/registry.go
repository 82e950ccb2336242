package parser

import (
	"sort"
	"strings"
	"sync"

	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.ParserRegistry = (*Registry)(nil)

// Registry implements driven.ParserRegistry with priority-based
// selection, mirroring the donor's normaliser registry: when multiple
// parsers match, the highest-priority one wins.
type Registry struct {
	mu      sync.RWMutex
	parsers []driven.Parser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make([]driven.Parser, 0)}
}

func (r *Registry) Register(p driven.Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers = append(r.parsers, p)
}

// Get returns the best-matching parser for an extension or MIME type,
// falling back to the lowest-priority registered parser (plain text)
// for unrecognized inputs, per spec 4.1.
func (r *Registry) Get(extensionOrMIME string) driven.Parser {
	matches := r.getAll(extensionOrMIME)
	if len(matches) == 0 {
		return r.fallback()
	}
	return matches[0]
}

func (r *Registry) getAll(extensionOrMIME string) []driven.Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []driven.Parser
	for _, p := range r.parsers {
		if matchesType(p.SupportedTypes(), extensionOrMIME) {
			matches = append(matches, p)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})
	return matches
}

func (r *Registry) fallback() driven.Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var lowest driven.Parser
	for _, p := range r.parsers {
		if lowest == nil || p.Priority() < lowest.Priority() {
			lowest = p
		}
	}
	return lowest
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range r.parsers {
		for _, t := range p.SupportedTypes() {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func matchesType(supported []string, want string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	if idx := strings.Index(want, ";"); idx != -1 {
		want = strings.TrimSpace(want[:idx])
	}
	want = strings.TrimPrefix(want, ".")

	for _, s := range supported {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == want {
			return true
		}
		if strings.HasSuffix(s, "/*") && strings.HasPrefix(want, s[:len(s)-1]) {
			return true
		}
		if s == "*/*" {
			return true
		}
	}
	return false
}

// DefaultRegistry builds a registry with every parser named in
// SPEC_FULL.md's parser layer pre-registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&TextParser{})
	r.Register(&MarkdownParser{})
	r.Register(&HTMLParser{})
	r.Register(&PDFParser{})
	r.Register(&DOCXParser{})
	return r
}
