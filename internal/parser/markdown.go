package parser

import (
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark. The source is passed
// through unchanged so pipe tables survive; goldmark only supplies headings.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Conversion, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	title := ""
	var headings []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		t := strings.TrimSpace(string(h.Text(src)))
		if t == "" {
			continue
		}
		if h.Level == 1 && title == "" {
			title = t
		}
		headings = append(headings, t)
	}
	if title == "" {
		title = titleFromFilename(filename)
	}

	return &doctree.Conversion{
		CleanedText: string(src),
		Markdown:    string(src),
		TOC:         headingTOC(headings),
		Metadata: doctree.Metadata{
			TotalPages: 1,
			Title:      title,
			FileType:   "md",
		},
	}, nil
}
