// Package lint is the in-process style analyzer. It reports pylint-style
// messages for unused names, complex functions, naming and long lines.
package lint

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine"
)

const (
	DefaultMaxComplexity = 10
	DefaultMaxLineLength = 100
)

// Options tunes the thresholds. Zero values take the defaults.
type Options struct {
	MaxComplexity int `yaml:"max_complexity"`
	MaxLineLength int `yaml:"max_line_length"`
}

func (o Options) withDefaults() Options {
	if o.MaxComplexity <= 0 {
		o.MaxComplexity = DefaultMaxComplexity
	}
	if o.MaxLineLength <= 0 {
		o.MaxLineLength = DefaultMaxLineLength
	}
	return o
}

// Linter checks one language.
type Linter struct {
	lang domain.LanguageTag
	opts Options
	prof *profile
}

// New returns the linter for lang.
func New(lang domain.LanguageTag, opts Options) (*Linter, error) {
	prof, ok := profiles[lang]
	if !ok || engine.Grammar(lang) == nil {
		return nil, fmt.Errorf("lint: unsupported language %s", lang)
	}
	return &Linter{lang: lang, opts: opts.withDefaults(), prof: prof}, nil
}

// Linters returns one linter per supported language.
func Linters(opts Options) []*Linter {
	var out []*Linter
	for _, lang := range domain.Languages {
		if l, err := New(lang, opts); err == nil {
			out = append(out, l)
		}
	}
	return out
}

func (l *Linter) Descriptor() domain.Descriptor {
	return domain.Descriptor{
		Name:     "lint-" + engine.Slug(l.lang),
		Language: l.lang,
		Kind:     domain.KindStyle,
	}
}

func (l *Linter) Run(ctx context.Context, code string) (domain.RawOutput, error) {
	src := []byte(code)
	tree, err := engine.Parse(ctx, l.lang, src)
	if err != nil {
		return domain.RawOutput{}, err
	}
	defer tree.Close()
	root := tree.RootNode()

	c := &checker{ctx: ctx, lang: l.lang, opts: l.opts, prof: l.prof, src: src}
	steps := []func(*sitter.Node) error{
		c.unusedImports,
		c.unusedVariables,
		c.complexity,
		c.naming,
	}
	for _, step := range steps {
		if err := step(root); err != nil {
			return domain.RawOutput{}, err
		}
	}
	c.lineLength(code)
	return engine.LintReport(c.msgs), nil
}
