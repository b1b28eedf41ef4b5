// Package prompt builds the messages sent to the LLM code reviewer.
package prompt

import (
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// maxPromptLines caps how many source lines are sent to the model.
const maxPromptLines = 400

// SystemPrompt fixes the reviewer role, the vocabulary and the output schema.
func SystemPrompt() string {
	return `You are a senior application security reviewer. Respond with one valid JSON object only (no markdown, no commentary, no code fences).

Requirements:
- Report only concrete security weaknesses visible in the submitted code.
- "type" must be one of: ` + strings.Join(securityTypes(), ", ") + `.
- "line" and "end_line" are 1-based line numbers from the numbered listing.
- Use lowercase severity values: critical, high, medium, low, info.
- "solution" is one or two sentences of remediation advice.
- If nothing is wrong, return {"findings": []}.

Schema:
{
  "findings": [
    {
      "type": "<string>",
      "line": 0,
      "end_line": 0,
      "severity": "<critical|high|medium|low|info>",
      "description": "<string>",
      "solution": "<string>"
    }
  ]
}`
}

// UserPrompt wraps code as a numbered listing.
func UserPrompt(lang domain.LanguageTag, code string) string {
	lines := strings.Split(code, "\n")
	truncated := false
	if len(lines) > maxPromptLines {
		lines = lines[:maxPromptLines]
		truncated = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Review this %s code.\n\n", lang)
	for i, l := range lines {
		fmt.Fprintf(&b, "%4d | %s\n", i+1, l)
	}
	if truncated {
		fmt.Fprintf(&b, "(listing truncated after %d lines)\n", maxPromptLines)
	}
	return b.String()
}

func securityTypes() []string {
	return []string{
		domain.TypeUnsafeDeserialization,
		domain.TypeCommandInjection,
		domain.TypeCodeInjection,
		domain.TypeSQLInjection,
		domain.TypeHardcodedSecret,
		domain.TypeWeakCrypto,
		domain.TypeInsecureRandom,
		domain.TypeBufferOverflow,
		domain.TypeXSS,
		domain.TypeSecurityIssue,
	}
}
