package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// CSVParser renders CSV files as a markdown pipe table, one row per line.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Conversion, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	conv := &doctree.Conversion{
		Metadata: doctree.Metadata{
			TotalPages: 1,
			Title:      titleFromFilename(filename),
			FileType:   "csv",
		},
	}
	if len(records) == 0 {
		return conv, nil
	}

	width := 0
	for _, rec := range records {
		width = max(width, len(rec))
	}

	var sb strings.Builder
	writeRow(&sb, records[0], width)
	sep := make([]string, width)
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&sb, sep, width)
	for _, rec := range records[1:] {
		writeRow(&sb, rec, width)
	}

	conv.CleanedText = strings.TrimSuffix(sb.String(), "\n")
	conv.Markdown = conv.CleanedText
	return conv, nil
}

func writeRow(sb *strings.Builder, cells []string, width int) {
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(cells) {
			cell = escapeCell(cells[i])
		}
		if cell == "" {
			cell = "-"
		}
		sb.WriteString(" " + cell + " |")
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
