package sast

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

// RawRule is the YAML form of a dangerous-call rule.
type RawRule struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Language    string   `yaml:"language"`
	Category    string   `yaml:"category"`
	Severity    string   `yaml:"severity"`
	Calls       []string `yaml:"calls"`
	Assigns     []string `yaml:"assigns"`
	Exact       bool     `yaml:"exact"`
	ArgsMatch   string   `yaml:"args_match"`
	ArgsExclude string   `yaml:"args_exclude"`
	Message     string   `yaml:"message"`
	Remediation string   `yaml:"remediation"`
}

// Rule is a compiled RawRule.
type Rule struct {
	ID          string
	Name        string
	Language    domain.LanguageTag
	Category    string
	Severity    string
	Calls       []string
	Assigns     []string
	Exact       bool
	ArgsMatch   *regexp.Regexp
	ArgsExclude *regexp.Regexp
	Message     string
	Remediation string
}

// Compile validates raw and compiles its regular expressions.
func Compile(raw RawRule) (*Rule, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("rule missing id")
	}
	lang, ok := domain.ParseTag(raw.Language)
	if !ok || lang == domain.LangUnknown {
		return nil, fmt.Errorf("rule %s: unsupported language %q", raw.ID, raw.Language)
	}
	if len(raw.Calls) == 0 && len(raw.Assigns) == 0 {
		return nil, fmt.Errorf("rule %s: no calls or assigns", raw.ID)
	}
	if !domain.IsKnownType(raw.Category) {
		return nil, fmt.Errorf("rule %s: unknown category %q", raw.ID, raw.Category)
	}
	r := &Rule{
		ID:          raw.ID,
		Name:        raw.Name,
		Language:    lang,
		Category:    raw.Category,
		Severity:    strings.ToUpper(raw.Severity),
		Calls:       raw.Calls,
		Assigns:     raw.Assigns,
		Exact:       raw.Exact,
		Message:     raw.Message,
		Remediation: raw.Remediation,
	}
	var err error
	if raw.ArgsMatch != "" {
		if r.ArgsMatch, err = regexp.Compile(raw.ArgsMatch); err != nil {
			return nil, fmt.Errorf("rule %s args_match: %w", raw.ID, err)
		}
	}
	if raw.ArgsExclude != "" {
		if r.ArgsExclude, err = regexp.Compile(raw.ArgsExclude); err != nil {
			return nil, fmt.Errorf("rule %s args_exclude: %w", raw.ID, err)
		}
	}
	return r, nil
}

// BuiltinRules returns the embedded rule set.
func BuiltinRules() ([]RawRule, error) {
	var all []RawRule
	err := fs.WalkDir(builtinRules, "rules", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
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

// matchCall reports whether callee names one of the rule's calls. Unless the
// rule is exact, a call also matches as a qualified suffix (".x", "::x").
func (r *Rule) matchCall(callee string) bool {
	for _, c := range r.Calls {
		if callee == c {
			return true
		}
		if r.Exact {
			continue
		}
		if strings.HasSuffix(callee, "."+c) || strings.HasSuffix(callee, "::"+c) {
			return true
		}
	}
	return false
}

func (r *Rule) matchAssign(target string) bool {
	for _, a := range r.Assigns {
		if target == a || strings.HasSuffix(target, "."+a) {
			return true
		}
	}
	return false
}

func (r *Rule) matchArgs(args string) bool {
	if r.ArgsMatch != nil && !r.ArgsMatch.MatchString(args) {
		return false
	}
	if r.ArgsExclude != nil && r.ArgsExclude.MatchString(args) {
		return false
	}
	return true
}
