package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

type sarifLog struct {
	Runs []struct {
		Tool struct {
			Driver struct {
				Rules []sarifRule `json:"rules"`
			} `json:"driver"`
		} `json:"tool"`
		Results []struct {
			RuleID  string `json:"ruleId"`
			Level   string `json:"level"`
			Message struct {
				Text string `json:"text"`
			} `json:"message"`
			Locations []struct {
				PhysicalLocation struct {
					Region struct {
						StartLine   int `json:"startLine"`
						StartColumn int `json:"startColumn"`
						EndLine     int `json:"endLine"`
						EndColumn   int `json:"endColumn"`
					} `json:"region"`
				} `json:"physicalLocation"`
			} `json:"locations"`
			Properties map[string]any `json:"properties"`
		} `json:"results"`
	} `json:"runs"`
}

type sarifRule struct {
	ID               string `json:"id"`
	ShortDescription struct {
		Text string `json:"text"`
	} `json:"shortDescription"`
	Help struct {
		Text string `json:"text"`
	} `json:"help"`
	Properties struct {
		Tags []string `json:"tags"`
	} `json:"properties"`
}

func decodeSARIF(data []byte) ([]diagnostic, error) {
	var doc sarifLog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Runs == nil {
		return nil, fmt.Errorf("sarif log has no runs")
	}
	var out []diagnostic
	for _, run := range doc.Runs {
		rules := make(map[string]sarifRule, len(run.Tool.Driver.Rules))
		for _, r := range run.Tool.Driver.Rules {
			rules[r.ID] = r
		}
		for _, res := range run.Results {
			var sp Span
			if len(res.Locations) > 0 {
				reg := res.Locations[0].PhysicalLocation.Region
				sp = Span{Line: reg.StartLine, EndLine: reg.EndLine}
				if reg.StartColumn > 0 {
					sp.Col = reg.StartColumn - 1
				}
				if reg.EndColumn > 0 {
					sp.EndCol = reg.EndColumn - 1
				}
			}
			rule := rules[res.RuleID]

			// severity property first, then level
			sev := ""
			for _, key := range []string{"severity", "Severity"} {
				if v, ok := res.Properties[key].(string); ok {
					sev = v
					break
				}
			}
			if sev == "" {
				sev = res.Level
			}

			text := res.Message.Text
			if text == "" {
				text = rule.ShortDescription.Text
			}
			out = append(out, diagnostic{
				span:     sp,
				ids:      []string{res.RuleID},
				text:     text,
				category: strings.Join(rule.Properties.Tags, " "),
				severity: MapSeverity(sev),
				solution: rule.Help.Text,
			})
		}
	}
	return out, nil
}
