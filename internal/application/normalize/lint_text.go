package normalize

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
)

// Matches pylint's --msg-template='{line}:{column}:{end_line}:{end_column}: {msg_id} {symbol}: {msg}'.
// Lines that do not match (module banners, score summary) are skipped.
var lintLine = regexp.MustCompile(`^(\d+):(\d+):(\d+|None)?:(\d+|None)?: ([A-Z]\d{4}) ([\w-]+): (.*)$`)

func decodeLintText(data []byte) ([]diagnostic, error) {
	var out []diagnostic
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		mm := lintLine.FindStringSubmatch(sc.Text())
		if mm == nil {
			continue
		}
		line, _ := strconv.Atoi(mm[1])
		col, _ := strconv.Atoi(mm[2])
		endLine, _ := strconv.Atoi(mm[3])
		endCol, _ := strconv.Atoi(mm[4])
		out = append(out, diagnostic{
			span:     Span{Line: line, Col: col, EndLine: endLine, EndCol: endCol},
			ids:      []string{mm[5], mm[6]},
			text:     mm[7],
			severity: lintSeverity(mm[5]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
