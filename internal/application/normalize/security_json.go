package normalize

import (
	"encoding/json"
	"fmt"
)

// banditResult mirrors one entry of bandit's "-f json" report. Category and
// Remediation are optional extensions emitted by the in-process engines.
type banditResult struct {
	TestID        string `json:"test_id"`
	TestName      string `json:"test_name"`
	IssueText     string `json:"issue_text"`
	IssueSeverity string `json:"issue_severity"`
	LineNumber    int    `json:"line_number"`
	LineRange     []int  `json:"line_range"`
	ColOffset     int    `json:"col_offset"`
	EndColOffset  int    `json:"end_col_offset"`
	Category      string `json:"category"`
	Remediation   string `json:"remediation"`
}

func decodeSecurityJSON(data []byte) ([]diagnostic, error) {
	var doc struct {
		Results *[]banditResult `json:"results"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Results == nil {
		return nil, fmt.Errorf("security report has no results array")
	}
	out := make([]diagnostic, 0, len(*doc.Results))
	for _, r := range *doc.Results {
		end := r.LineNumber
		if n := len(r.LineRange); n > 0 && r.LineRange[n-1] > end {
			end = r.LineRange[n-1]
		}
		out = append(out, diagnostic{
			span: Span{
				Line:    r.LineNumber,
				Col:     r.ColOffset,
				EndLine: end,
				EndCol:  r.EndColOffset,
			},
			category: r.Category,
			ids:      []string{r.TestID, r.TestName},
			text:     r.IssueText,
			severity: MapSeverity(r.IssueSeverity),
			solution: r.Remediation,
		})
	}
	return out, nil
}
