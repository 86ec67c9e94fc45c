package toc

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize cleans a raw TOC region. It cuts the text down to the TOC
// heading, repairs tables flattened onto one line, merges lines broken by
// OCR, drops duplicates and caps the result at MaxLength characters. The
// second return value is false when nothing usable remains.
func (e *Extractor) Normalize(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}

	text := e.sliceRegion(raw)
	if strings.Count(text, "|") > 3 && strings.Count(text, "\n") < 3 {
		text = strings.Join(repairFlatTable(text), "\n")
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = cleanLine(line); runeLen(line) > 2 {
			lines = append(lines, line)
		}
	}
	lines = dedupe(mergeFragments(lines))

	out := strings.TrimSpace(strings.Join(lines, "\n"))
	if runeLen(out) > e.rules.MaxLength {
		out = strings.TrimSpace(string([]rune(out)[:e.rules.MaxLength]))
	}
	out = spaceRunRe.ReplaceAllString(out, " ")
	out = newlineRunRe.ReplaceAllString(out, "\n\n")
	return out, out != ""
}

// sliceRegion cuts text to start at the TOC heading and end before the first
// end marker after it.
func (e *Extractor) sliceRegion(text string) string {
	if loc := e.headingRe.FindStringIndex(text); loc != nil {
		region := text[loc[0]:]
		if e.endRe != nil {
			// Search past the heading's own "##" so it never matches itself.
			if end := e.endRe.FindStringIndex(region[2:]); end != nil {
				region = region[:end[0]+2]
			}
		}
		return headerMarkRe.ReplaceAllString(region, "")
	}

	if m := e.bareRe.FindStringSubmatchIndex(text); m != nil {
		if start := m[2]; start > 0 && start < e.rules.KeywordWindow {
			return text[start:]
		}
	}
	return text
}

// repairFlatTable splits a one-line pipe table into entries, folding a bare
// page number into the entry after it.
func repairFlatTable(text string) []string {
	var parts []string
	for _, p := range strings.Split(text, "|") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	var out []string
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		if separatorRe.MatchString(part) {
			continue
		}
		if i > 0 && part == parts[i-1] {
			continue
		}
		if digitsRe.MatchString(part) && i+1 < len(parts) {
			next := parts[i+1]
			if !separatorRe.MatchString(next) && runeLen(next) > 2 {
				out = append(out, part+" "+next)
				i++
				continue
			}
		}
		if runeLen(part) > 2 {
			out = append(out, part)
		}
	}
	return out
}

func cleanLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if separatorRe.MatchString(trimmed) {
		return ""
	}
	if !strings.Contains(line, "|") {
		return trimmed
	}

	var cells []string
	for _, c := range strings.Split(line, "|") {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	switch {
	case len(cells) == 0:
		return ""
	case len(cells) >= 2 && allEqual(cells):
		return cells[0]
	case len(cells) >= 3:
		for _, c := range cells {
			if runeLen(c) > 2 {
				return c
			}
		}
		return cells[0]
	case len(cells) == 2:
		return cells[0] + " | " + cells[1]
	}
	return cells[0]
}

// mergeFragments joins lines that OCR split in two. Each line merges with at
// most one follower.
func mergeFragments(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if i+1 < len(lines) {
			next := lines[i+1]
			switch {
			case appendixRe.MatchString(line),
				endsLower(line) && startsLower(next),
				!endsSentence(line) && startsLower(next) && runeLen(next) < 50:
				line += " " + next
				i++
			}
		}
		out = append(out, line)
	}
	return out
}

func dedupe(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := lines[:0]
	for _, l := range lines {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

func allEqual(cells []string) bool {
	for _, c := range cells[1:] {
		if c != cells[0] {
			return false
		}
	}
	return true
}

func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}

func endsLower(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsLower(r)
}

func endsSentence(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}
