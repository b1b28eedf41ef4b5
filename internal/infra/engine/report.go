package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// SecurityResult is one entry of a bandit-compatible JSON report.
type SecurityResult struct {
	TestID        string `json:"test_id"`
	TestName      string `json:"test_name"`
	IssueText     string `json:"issue_text"`
	IssueSeverity string `json:"issue_severity"`
	LineNumber    int    `json:"line_number"`
	LineRange     []int  `json:"line_range"`
	ColOffset     int    `json:"col_offset"`
	EndColOffset  int    `json:"end_col_offset"`
	Category      string `json:"category,omitempty"`
	Remediation   string `json:"remediation,omitempty"`
}

// At fills the location fields from a node.
func (r SecurityResult) At(n *sitter.Node) SecurityResult {
	start, end := n.StartPoint(), n.EndPoint()
	r.LineNumber = int(start.Row) + 1
	r.ColOffset = int(start.Column)
	r.EndColOffset = int(end.Column)
	r.LineRange = nil
	for l := int(start.Row) + 1; l <= int(end.Row)+1; l++ {
		r.LineRange = append(r.LineRange, l)
	}
	return r
}

// SecurityReport encodes results as FormatSecurityJSON.
func SecurityReport(results []SecurityResult) (domain.RawOutput, error) {
	if results == nil {
		results = []SecurityResult{}
	}
	data, err := json.Marshal(struct {
		Errors  []string         `json:"errors"`
		Results []SecurityResult `json:"results"`
	}{Errors: []string{}, Results: results})
	if err != nil {
		return domain.RawOutput{}, err
	}
	return domain.RawOutput{Format: domain.FormatSecurityJSON, Data: data}, nil
}

// LintMessage is one style diagnostic. Columns are 0-based bytes; EndCol 0
// means the whole line.
type LintMessage struct {
	Line    int
	Col     int
	EndLine int
	EndCol  int
	MsgID   string
	Symbol  string
	Text    string
}

// LintAt builds a message spanning n.
func LintAt(n *sitter.Node, msgID, symbol, text string) LintMessage {
	start, end := n.StartPoint(), n.EndPoint()
	return LintMessage{
		Line:    int(start.Row) + 1,
		Col:     int(start.Column),
		EndLine: int(end.Row) + 1,
		EndCol:  int(end.Column),
		MsgID:   msgID,
		Symbol:  symbol,
		Text:    text,
	}
}

// LintReport sorts msgs by position and encodes them as FormatLintText.
func LintReport(msgs []LintMessage) domain.RawOutput {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Line != msgs[j].Line {
			return msgs[i].Line < msgs[j].Line
		}
		return msgs[i].Col < msgs[j].Col
	})
	var b strings.Builder
	for _, m := range msgs {
		endLine, endCol := fmt.Sprint(m.EndLine), fmt.Sprint(m.EndCol)
		if m.EndCol == 0 {
			endLine, endCol = "None", "None"
		}
		// messages are single line by construction
		text := strings.ReplaceAll(m.Text, "\n", " ")
		fmt.Fprintf(&b, "%d:%d:%s:%s: %s %s: %s\n", m.Line, m.Col, endLine, endCol, m.MsgID, m.Symbol, text)
	}
	return domain.RawOutput{Format: domain.FormatLintText, Data: []byte(b.String())}
}
