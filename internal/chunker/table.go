package chunker

import "strings"

// IsTableRow reports whether line is a markdown table row: after trimming it
// starts and ends with a pipe, has at least three pipes and at least two
// non-empty cells. A single stray pipe inside prose never qualifies.
func IsTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") || !strings.HasSuffix(trimmed, "|") {
		return false
	}
	if strings.Count(trimmed, "|") < 3 {
		return false
	}
	cells := 0
	for _, c := range strings.Split(trimmed, "|") {
		if strings.TrimSpace(c) != "" {
			cells++
		}
	}
	return cells >= 2
}
