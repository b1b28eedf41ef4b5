package analysis

import (
	"fmt"
	"sort"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// Registry maps languages to their adapters. It is built once at startup and
// only read afterwards, so it is safe for concurrent use.
type Registry struct {
	all    []domain.Adapter
	byLang map[domain.LanguageTag][]domain.Adapter
}

// NewRegistry registers adapters in order. Names must be unique and every
// adapter must declare a supported language and a known kind.
func NewRegistry(adapters ...domain.Adapter) (*Registry, error) {
	r := &Registry{byLang: map[domain.LanguageTag][]domain.Adapter{}}
	names := map[string]bool{}
	for _, a := range adapters {
		d := a.Descriptor()
		if d.Name == "" {
			return nil, fmt.Errorf("adapter without name")
		}
		if names[d.Name] {
			return nil, fmt.Errorf("duplicate adapter %q", d.Name)
		}
		if d.Language == domain.LangUnknown || d.Language == "" {
			return nil, fmt.Errorf("adapter %q: no language", d.Name)
		}
		if d.Kind != domain.KindSecurity && d.Kind != domain.KindStyle {
			return nil, fmt.Errorf("adapter %q: unknown kind %q", d.Name, d.Kind)
		}
		names[d.Name] = true
		r.all = append(r.all, a)
		r.byLang[d.Language] = append(r.byLang[d.Language], a)
	}
	for lang, list := range r.byLang {
		sorted := append([]domain.Adapter(nil), list...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Descriptor().Kind.Priority() < sorted[j].Descriptor().Kind.Priority()
		})
		r.byLang[lang] = sorted
	}
	return r, nil
}

// Select returns the adapters for lang: security first, then style, each in
// registration order. Unknown languages have none.
func (r *Registry) Select(lang domain.LanguageTag) []domain.Adapter {
	return append([]domain.Adapter(nil), r.byLang[lang]...)
}

// Descriptors lists every registered adapter in registration order.
func (r *Registry) Descriptors() []domain.Descriptor {
	out := make([]domain.Descriptor, 0, len(r.all))
	for _, a := range r.all {
		out = append(out, a.Descriptor())
	}
	return out
}

func (r *Registry) Len() int { return len(r.all) }
