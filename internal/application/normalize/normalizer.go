// Package normalize converts native analyzer output into Findings.
package normalize

import (
	"log/slog"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// diagnostic is the format-independent intermediate every decoder produces.
type diagnostic struct {
	span     Span
	category string
	ids      []string
	text     string
	severity domain.Severity
	solution string
}

type decoder func(data []byte) ([]diagnostic, error)

var decoders = map[domain.RawFormat]decoder{
	domain.FormatSecurityJSON: decodeSecurityJSON,
	domain.FormatLintText:     decodeLintText,
	domain.FormatSARIF:        decodeSARIF,
	domain.FormatLLMJSON:      decodeLLMJSON,
}

// Normalizer maps RawOutput to Findings. It is safe for concurrent use.
type Normalizer struct {
	catalog *Catalog
	log     *slog.Logger
}

// New creates a Normalizer. A nil catalog means the built-in one.
func New(catalog *Catalog, log *slog.Logger) *Normalizer {
	if catalog == nil {
		catalog = NewCatalog()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{catalog: catalog, log: log}
}

// Normalize decodes raw and returns one Finding per diagnostic, in the order
// the tool emitted them. Unparseable output yields no findings.
func (n *Normalizer) Normalize(code string, raw domain.RawOutput, d domain.Descriptor) []domain.Finding {
	dec, ok := decoders[raw.Format]
	if !ok {
		n.log.Warn("unknown raw format", "tool", d.Name, "format", raw.Format)
		return nil
	}
	diags, err := dec(raw.Data)
	if err != nil {
		n.log.Warn("malformed analyzer output", "tool", d.Name, "format", raw.Format, "error", err)
		return nil
	}

	out := make([]domain.Finding, 0, len(diags))
	for _, dg := range diags {
		typ := MapType(d.Kind, dg.category, dg.ids, dg.text)
		solution := dg.solution
		if solution == "" {
			solution = n.catalog.Lookup(typ)
		}
		out = append(out, domain.Finding{
			Type:        typ,
			Code:        Excerpt(code, dg.span),
			Description: dg.text,
			Solution:    solution,
			Severity:    dg.severity,
			Tool:        d.Name,
			Line:        dg.span.Line,
		})
	}
	return out
}
