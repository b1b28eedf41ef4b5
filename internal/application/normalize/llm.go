package normalize

import (
	"encoding/json"
	"fmt"
)

func decodeLLMJSON(data []byte) ([]diagnostic, error) {
	var doc struct {
		Findings *[]struct {
			Type        string `json:"type"`
			Line        int    `json:"line"`
			EndLine     int    `json:"end_line"`
			Severity    string `json:"severity"`
			Description string `json:"description"`
			Solution    string `json:"solution"`
		} `json:"findings"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Findings == nil {
		return nil, fmt.Errorf("llm output has no findings array")
	}
	out := make([]diagnostic, 0, len(*doc.Findings))
	for _, f := range *doc.Findings {
		if f.Line < 1 {
			continue
		}
		out = append(out, diagnostic{
			span:     Span{Line: f.Line, EndLine: f.EndLine},
			category: f.Type,
			text:     f.Description,
			severity: MapSeverity(f.Severity),
			solution: f.Solution,
		})
	}
	return out, nil
}
