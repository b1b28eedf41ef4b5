package analysis

import "strings"

// LanguageTag identifies the language of a submission.
type LanguageTag string

const (
	LangPython     LanguageTag = "python"
	LangJavaScript LanguageTag = "javascript"
	LangJava       LanguageTag = "java"
	LangC          LanguageTag = "c"
	LangCPP        LanguageTag = "c++"
	LangGo         LanguageTag = "go"
	LangUnknown    LanguageTag = "unknown"
)

// Languages lists every supported tag except unknown.
var Languages = []LanguageTag{LangPython, LangJavaScript, LangJava, LangC, LangCPP, LangGo}

// ParseTag maps a user supplied language name to a tag. Unrecognized names
// give LangUnknown and false.
func ParseTag(s string) (LanguageTag, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "python", "py", "python3":
		return LangPython, true
	case "javascript", "js", "node", "nodejs", "ecmascript":
		return LangJavaScript, true
	case "java":
		return LangJava, true
	case "c":
		return LangC, true
	case "c++", "cpp", "cxx", "cplusplus":
		return LangCPP, true
	case "go", "golang":
		return LangGo, true
	case "unknown", "plaintext", "text", "text only":
		return LangUnknown, true
	default:
		return LangUnknown, false
	}
}

// ToolKind separates security scanners from style checkers.
type ToolKind string

const (
	KindSecurity ToolKind = "security"
	KindStyle    ToolKind = "style"
)

// Priority orders kinds for display; lower comes first.
func (k ToolKind) Priority() int {
	switch k {
	case KindSecurity:
		return 0
	case KindStyle:
		return 1
	default:
		return 2
	}
}

// Severity enum
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Submission is one request's input. It is never stored.
type Submission struct {
	Content          string
	Filename         string
	DeclaredLanguage LanguageTag
}

// Finding is one normalized diagnostic. Code is a verbatim excerpt of the
// submission.
type Finding struct {
	Type        string   `json:"type"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Solution    string   `json:"solution"`
	Severity    Severity `json:"severity,omitempty"`
	Tool        string   `json:"tool"`
	Line        int      `json:"line,omitempty"`
}

// RunStatus is the outcome of one adapter invocation.
type RunStatus string

const (
	RunOK      RunStatus = "ok"
	RunTimeout RunStatus = "timeout"
	RunFailed  RunStatus = "failed"
)

// AnalyzerStatus reports which adapters ran for a report.
type AnalyzerStatus struct {
	Name   string    `json:"name"`
	Kind   ToolKind  `json:"kind"`
	Status RunStatus `json:"status"`
}

// Report is the single artifact returned to the caller.
type Report struct {
	Language  LanguageTag      `json:"language"`
	Findings  []Finding        `json:"findings"`
	Analyzers []AnalyzerStatus `json:"analyzers"`
}

// ByKind returns the findings whose producing analyzer has the given kind.
func (r Report) ByKind(kind ToolKind) []Finding {
	kinds := make(map[string]ToolKind, len(r.Analyzers))
	for _, a := range r.Analyzers {
		kinds[a.Name] = a.Kind
	}
	var out []Finding
	for _, f := range r.Findings {
		if kinds[f.Tool] == kind {
			out = append(out, f)
		}
	}
	return out
}

// Ran reports whether any analyzer of kind was selected for this report.
func (r Report) Ran(kind ToolKind) bool {
	for _, a := range r.Analyzers {
		if a.Kind == kind {
			return true
		}
	}
	return false
}
