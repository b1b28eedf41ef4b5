package secrets

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

//go:embed rules/*.yaml
var builtinRules embed.FS

// Report modes select which text a hit points at.
const (
	ReportMatch = "match"
	ReportLine  = "line"
)

// RawExamples are snippets a rule must and must not flag.
type RawExamples struct {
	TruePositive  []string `yaml:"true_positive"`
	FalsePositive []string `yaml:"false_positive"`
}

// RawRule is the YAML representation of a text rule.
type RawRule struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Category    string      `yaml:"category"`
	Severity    string      `yaml:"severity"`
	Languages   []string    `yaml:"languages"`
	Patterns    []string    `yaml:"patterns"`
	Exclude     []string    `yaml:"exclude"`
	Report      string      `yaml:"report"`
	Message     string      `yaml:"message"`
	Remediation string      `yaml:"remediation"`
	Examples    RawExamples `yaml:"examples"`
}

// Rule is a compiled RawRule. A nil language set applies to every language.
type Rule struct {
	ID          string
	Name        string
	Category    string
	Severity    string
	Languages   map[domain.LanguageTag]bool
	Patterns    []*regexp.Regexp
	Exclude     []*regexp.Regexp
	Report      string
	Message     string
	Remediation string
	Examples    RawExamples
}

// Compile validates raw and compiles its patterns.
func Compile(raw RawRule) (*Rule, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("rule missing id")
	}
	if len(raw.Patterns) == 0 {
		return nil, fmt.Errorf("rule %s: no patterns", raw.ID)
	}
	if !domain.IsKnownType(raw.Category) {
		return nil, fmt.Errorf("rule %s: unknown category %q", raw.ID, raw.Category)
	}
	r := &Rule{
		ID:          raw.ID,
		Name:        raw.Name,
		Category:    raw.Category,
		Severity:    strings.ToUpper(raw.Severity),
		Report:      raw.Report,
		Message:     raw.Message,
		Remediation: raw.Remediation,
		Examples:    raw.Examples,
	}
	switch r.Report {
	case "":
		r.Report = ReportMatch
	case ReportMatch, ReportLine:
	default:
		return nil, fmt.Errorf("rule %s: unknown report mode %q", raw.ID, raw.Report)
	}
	for _, l := range raw.Languages {
		tag, ok := domain.ParseTag(l)
		if !ok || tag == domain.LangUnknown {
			return nil, fmt.Errorf("rule %s: unsupported language %q", raw.ID, l)
		}
		if r.Languages == nil {
			r.Languages = map[domain.LanguageTag]bool{}
		}
		r.Languages[tag] = true
	}
	for _, p := range raw.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("rule %s pattern: %w", raw.ID, err)
		}
		r.Patterns = append(r.Patterns, re)
	}
	for _, p := range raw.Exclude {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("rule %s exclude: %w", raw.ID, err)
		}
		r.Exclude = append(r.Exclude, re)
	}
	return r, nil
}

// Applies reports whether the rule targets lang.
func (r *Rule) Applies(lang domain.LanguageTag) bool {
	return r.Languages == nil || r.Languages[lang]
}

// BuiltinRules returns the embedded rule set.
func BuiltinRules() ([]RawRule, error) {
	var all []RawRule
	err := fs.WalkDir(builtinRules, "rules", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := builtinRules.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		rules, err := ParseRules(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		all = append(all, rules...)
		return nil
	})
	return all, err
}

// ParseRules reads a YAML list of rules, possibly split in several documents.
func ParseRules(data []byte) ([]RawRule, error) {
	var all []RawRule
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc []RawRule
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		all = append(all, doc...)
	}
	return all, nil
}
