package httpserver

import (
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

type analyzeResponse struct {
	Language        domain.LanguageTag      `json:"language"`
	Vulnerabilities []domain.Finding        `json:"vulnerabilities"`
	Analyzers       []domain.AnalyzerStatus `json:"analyzers"`
	// Plain-text digests kept for older editor builds.
	BanditAnalysis string `json:"bandit_analysis,omitempty"`
	PylintAnalysis string `json:"pylint_analysis,omitempty"`

	FileName string `json:"fileName,omitempty"`
	Message  string `json:"message,omitempty"`
}

func newAnalyzeResponse(rep domain.Report) analyzeResponse {
	resp := analyzeResponse{
		Language:        rep.Language,
		Vulnerabilities: rep.Findings,
		Analyzers:       rep.Analyzers,
	}
	if resp.Vulnerabilities == nil {
		resp.Vulnerabilities = []domain.Finding{}
	}
	if resp.Analyzers == nil {
		resp.Analyzers = []domain.AnalyzerStatus{}
	}
	if rep.Ran(domain.KindSecurity) {
		resp.BanditAnalysis = digest(rep.ByKind(domain.KindSecurity))
	}
	if rep.Ran(domain.KindStyle) {
		resp.PylintAnalysis = digest(rep.ByKind(domain.KindStyle))
	}
	return resp
}

// digest renders findings one per line as "line N: [severity] type: description".
func digest(findings []domain.Finding) string {
	if len(findings) == 0 {
		return "No issues identified."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d issue(s) found.\n", len(findings))
	for _, f := range findings {
		if f.Line > 0 {
			fmt.Fprintf(&b, "line %d: ", f.Line)
		}
		if f.Severity != "" {
			fmt.Fprintf(&b, "[%s] ", f.Severity)
		}
		fmt.Fprintf(&b, "%s: %s (%s)\n", f.Type, f.Description, f.Tool)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
