package analysis

import (
	"sort"
	"strconv"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// Group is the outcome of one adapter run.
type Group struct {
	Descriptor domain.Descriptor
	Status     domain.RunStatus
	Findings   []domain.Finding
}

// Aggregate merges groups into one report. Security groups come before style
// groups, otherwise groups keep their order and findings keep tool order. A
// finding with the same type, line and code as one from an earlier group is
// dropped.
func Aggregate(lang domain.LanguageTag, groups []Group) domain.Report {
	ordered := append([]Group(nil), groups...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Descriptor.Kind.Priority() < ordered[j].Descriptor.Kind.Priority()
	})

	report := domain.Report{
		Language:  lang,
		Findings:  []domain.Finding{},
		Analyzers: make([]domain.AnalyzerStatus, 0, len(ordered)),
	}
	seen := map[string]string{}
	for _, g := range ordered {
		report.Analyzers = append(report.Analyzers, domain.AnalyzerStatus{
			Name:   g.Descriptor.Name,
			Kind:   g.Descriptor.Kind,
			Status: g.Status,
		})
		for _, f := range g.Findings {
			key := f.Type + "\x00" + strconv.Itoa(f.Line) + "\x00" + f.Code
			if owner, dup := seen[key]; dup && owner != g.Descriptor.Name {
				continue
			}
			seen[key] = g.Descriptor.Name
			report.Findings = append(report.Findings, f)
		}
	}
	return report
}
