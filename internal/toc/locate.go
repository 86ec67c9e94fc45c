package toc

import (
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// Locate scans the first MaxPages pages for a TOC keyword and collects every
// non-blank line from the keyword line on, until MaxBlankLines consecutive
// blank lines or the end of the window. It returns nil when no keyword is
// found or when none of the collected lines looks like a TOC entry.
func (e *Extractor) Locate(pages []doctree.PageText) *doctree.TocCandidate {
	window := pages
	if len(window) > e.rules.MaxPages {
		window = window[:e.rules.MaxPages]
	}

	startPage, startLine := -1, 0
	for i, p := range window {
		if line, ok := e.keywordLine(p.Text); ok {
			startPage, startLine = i, line
			break
		}
	}
	if startPage < 0 {
		return nil
	}

	var (
		collected []string
		entries   int
		blanks    int
	)
scan:
	for i := startPage; i < len(window); i++ {
		lines := strings.Split(window[i].Text, "\n")
		if i == startPage {
			lines = lines[startLine:]
		}
		for _, raw := range lines {
			line := strings.TrimSpace(raw)
			if line == "" {
				blanks++
				if blanks >= e.rules.MaxBlankLines {
					break scan
				}
				continue
			}
			blanks = 0

			collected = append(collected, line)
			if e.looksLikeTOC(line) {
				entries++
			}
		}
	}

	if entries == 0 {
		return nil
	}
	return &doctree.TocCandidate{
		Page:    window[startPage].PageNumber,
		Content: strings.Join(collected, "\n"),
	}
}

// keywordLine returns the index of the first line of text containing any
// keyword.
func (e *Extractor) keywordLine(text string) (int, bool) {
	for i, line := range strings.Split(text, "\n") {
		upper := strings.ToUpper(line)
		for _, k := range e.keywords {
			if strings.Contains(upper, k) {
				return i, true
			}
		}
	}
	return 0, false
}
