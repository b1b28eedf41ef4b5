package normalize

import "strings"

// Span locates a diagnostic in the submitted text. Lines are 1-based, columns
// are 0-based byte offsets and EndCol is exclusive. A zero EndCol means the
// tool reported whole lines only.
type Span struct {
	Line    int
	Col     int
	EndLine int
	EndCol  int
}

// Excerpt returns the text covered by s as a substring of code. Whole-line
// spans drop the surrounding indentation and trailing whitespace only.
func Excerpt(code string, s Span) string {
	starts := lineStarts(code)
	if s.Line < 1 || s.Line > len(starts) {
		return ""
	}
	end := s.EndLine
	if end < s.Line {
		end = s.Line
	}
	if end > len(starts) {
		end = len(starts)
	}

	lineEnd := func(n int) int {
		if n < len(starts) {
			return starts[n] - 1
		}
		return len(code)
	}

	if s.EndCol > 0 && (end > s.Line || s.EndCol > s.Col) {
		from := starts[s.Line-1] + clamp(s.Col, lineEnd(s.Line)-starts[s.Line-1])
		to := starts[end-1] + clamp(s.EndCol, lineEnd(end)-starts[end-1])
		if to > from {
			return code[from:to]
		}
	}
	return strings.TrimSpace(code[starts[s.Line-1]:lineEnd(end)])
}

func lineStarts(code string) []int {
	starts := []int{0}
	for i := 0; i < len(code); i++ {
		if code[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
