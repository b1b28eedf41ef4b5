// Package secrets implements the text-level security analyzer: regex rules for
// hardcoded credentials and string-built SQL, applied to every language.
package secrets

import (
	"context"
	"fmt"
	"sort"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine"
)

// excludeRadius is how many preceding lines an exclude pattern may sit on.
const excludeRadius = 1

// Matcher runs the text rules of one language.
type Matcher struct {
	lang  domain.LanguageTag
	rules []*Rule
}

// NewMatcher creates a matcher for lang from the rules that apply to it.
func NewMatcher(lang domain.LanguageTag, compiled []*Rule) *Matcher {
	m := &Matcher{lang: lang}
	for _, r := range compiled {
		if r.Applies(lang) {
			m.rules = append(m.rules, r)
		}
	}
	return m
}

// Matchers compiles the built-in rules plus extra and returns one matcher per
// supported language.
func Matchers(extra ...RawRule) ([]*Matcher, error) {
	raws, err := BuiltinRules()
	if err != nil {
		return nil, err
	}
	raws = append(raws, extra...)

	compiled := make([]*Rule, 0, len(raws))
	for _, raw := range raws {
		r, err := Compile(raw)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, r)
	}

	var out []*Matcher
	for _, lang := range domain.Languages {
		if lang == domain.LangUnknown {
			continue
		}
		if m := NewMatcher(lang, compiled); len(m.rules) > 0 {
			out = append(out, m)
		}
	}
	return out, nil
}

func (m *Matcher) Descriptor() domain.Descriptor {
	return domain.Descriptor{
		Name:     "secrets-" + engine.Slug(m.lang),
		Language: m.lang,
		Kind:     domain.KindSecurity,
	}
}

func (m *Matcher) Run(ctx context.Context, code string) (domain.RawOutput, error) {
	starts := lineStarts(code)
	var results []engine.SecurityResult

	for _, r := range m.rules {
		if err := ctx.Err(); err != nil {
			return domain.RawOutput{}, err
		}
		results = append(results, m.apply(r, code, starts)...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].LineNumber != results[j].LineNumber {
			return results[i].LineNumber < results[j].LineNumber
		}
		return results[i].ColOffset < results[j].ColOffset
	})
	return engine.SecurityReport(results)
}

func (m *Matcher) apply(r *Rule, code string, starts []int) []engine.SecurityResult {
	var out []engine.SecurityResult
	seen := map[string]bool{}
	for _, pat := range r.Patterns {
		for _, loc := range pat.FindAllStringIndex(code, -1) {
			if loc[0] == loc[1] {
				continue
			}
			line, col := position(starts, loc[0])
			endLine, endCol := position(starts, loc[1])
			if excluded(r, code, starts, line) {
				continue
			}
			if r.Report == ReportLine {
				endLine, endCol = line, 0
			}
			key := fmt.Sprintf("%d:%d:%d:%d", line, col, endLine, endCol)
			if seen[key] {
				continue
			}
			seen[key] = true

			res := engine.SecurityResult{
				TestID:        r.ID,
				TestName:      r.Name,
				IssueText:     r.Message,
				IssueSeverity: r.Severity,
				LineNumber:    line,
				ColOffset:     col,
				EndColOffset:  endCol,
				Category:      r.Category,
				Remediation:   r.Remediation,
			}
			for l := line; l <= endLine; l++ {
				res.LineRange = append(res.LineRange, l)
			}
			out = append(out, res)
		}
	}
	return out
}

// excluded reports whether an exclude pattern matches line or the lines just
// above it.
func excluded(r *Rule, code string, starts []int, line int) bool {
	for l := max(line-excludeRadius, 1); l <= line; l++ {
		text := lineText(code, starts, l)
		for _, ex := range r.Exclude {
			if ex.MatchString(text) {
				return true
			}
		}
	}
	return false
}

func lineStarts(code string) []int {
	starts := []int{0}
	for i := 0; i < len(code); i++ {
		if code[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// position converts a byte offset to a 1-based line and 0-based column.
func position(starts []int, off int) (int, int) {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > off }) - 1
	return i + 1, off - starts[i]
}

func lineText(code string, starts []int, line int) string {
	from := starts[line-1]
	to := len(code)
	if line < len(starts) {
		to = starts[line] - 1
	}
	return code[from:to]
}
