package analysis

import (
	"context"
	"sync/atomic"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine"
)

type fakeAdapter struct {
	desc  domain.Descriptor
	run   func(ctx context.Context, code string) (domain.RawOutput, error)
	calls atomic.Int32
}

func (f *fakeAdapter) Descriptor() domain.Descriptor { return f.desc }

func (f *fakeAdapter) Run(ctx context.Context, code string) (domain.RawOutput, error) {
	f.calls.Add(1)
	return f.run(ctx, code)
}

func fake(name string, lang domain.LanguageTag, kind domain.ToolKind, run func(context.Context, string) (domain.RawOutput, error)) *fakeAdapter {
	return &fakeAdapter{desc: domain.Descriptor{Name: name, Language: lang, Kind: kind}, run: run}
}

// reporting returns a run func emitting one security result on line 1.
func reporting(category string) func(context.Context, string) (domain.RawOutput, error) {
	return func(context.Context, string) (domain.RawOutput, error) {
		return engine.SecurityReport([]engine.SecurityResult{{
			TestID:        "T1",
			IssueText:     "found " + category,
			IssueSeverity: "HIGH",
			LineNumber:    1,
			LineRange:     []int{1},
			Category:      category,
		}})
	}
}

func linting(line string) func(context.Context, string) (domain.RawOutput, error) {
	return func(context.Context, string) (domain.RawOutput, error) {
		return domain.RawOutput{Format: domain.FormatLintText, Data: []byte(line + "\n")}, nil
	}
}
