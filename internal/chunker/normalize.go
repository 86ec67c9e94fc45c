package chunker

import (
	"regexp"
	"strings"
)

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Normalize collapses whitespace in prose lines and drops the ones left empty.
// Table rows keep their internal spacing; only the row itself is trimmed.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if IsTableRow(line) {
			out = append(out, strings.TrimSpace(line))
			continue
		}
		if cleaned := strings.Join(strings.Fields(line), " "); cleaned != "" {
			out = append(out, cleaned)
		}
	}

	text := excessNewlines.ReplaceAllString(strings.Join(out, "\n"), "\n\n")
	return strings.TrimSpace(text)
}
