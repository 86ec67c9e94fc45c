package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// HTMLParser converts HTML to markdown. Tables become pipe rows so the
// chunker keeps them whole.
type HTMLParser struct {
	conv *converter.Converter
}

func NewHTMLParser() *HTMLParser {
	return &HTMLParser{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Conversion, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	md, err := p.conv.ConvertString(string(src))
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}

	title := findTitle(doc)
	if title == "" {
		title = titleFromFilename(filename)
	}

	var headings []string
	collectHeadings(doc, &headings)

	return &doctree.Conversion{
		CleanedText: md,
		Markdown:    md,
		TOC:         headingTOC(headings),
		Metadata: doctree.Metadata{
			TotalPages: 1,
			Title:      title,
			FileType:   "html",
		},
	}, nil
}

func collectHeadings(n *html.Node, out *[]string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "nav", "footer":
			return
		}
		if headingLevel(n.Data) > 0 {
			if t := textContent(n); t != "" {
				*out = append(*out, t)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectHeadings(c, out)
	}
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
