package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// TextParser handles plain text files. Form feeds mark page breaks.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Conversion, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	pages := strings.Split(string(src), "\f")
	text := strings.Join(pages, "\n\n")

	return &doctree.Conversion{
		CleanedText: text,
		Markdown:    text,
		Metadata: doctree.Metadata{
			TotalPages: len(pages),
			Title:      titleFromFilename(filename),
			FileType:   fileType(filename),
		},
	}, nil
}
