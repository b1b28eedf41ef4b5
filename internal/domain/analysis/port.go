package analysis

import "context"

// RawFormat tags the native diagnostic format of an adapter's output.
type RawFormat string

const (
	// FormatSecurityJSON is the bandit JSON report schema.
	FormatSecurityJSON RawFormat = "security-json"
	// FormatLintText is one diagnostic per line:
	// "line:col:end_line:end_col: MSGID symbol: message"
	FormatLintText RawFormat = "lint-text"
	// FormatSARIF is a SARIF 2.1.0 log.
	FormatSARIF RawFormat = "sarif"
	// FormatLLMJSON is the JSON object returned by the LLM reviewer.
	FormatLLMJSON RawFormat = "llm-json"
)

// RawOutput is an adapter's untouched diagnostic output.
type RawOutput struct {
	Format RawFormat
	Data   []byte
}

// Descriptor is the static registration of one adapter.
type Descriptor struct {
	Name     string
	Language LanguageTag
	Kind     ToolKind
}

// Adapter port (one analysis tool for one language)
type Adapter interface {
	Descriptor() Descriptor
	Run(ctx context.Context, code string) (RawOutput, error)
}

// Remediations port (source of per-type solution text)
type Remediations interface {
	LoadRemediations(ctx context.Context) (map[string]string, error)
}
