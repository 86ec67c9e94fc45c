package parser

import (
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docchunk/internal/chunker"
)

func TestTextParser_FormFeedPages(t *testing.T) {
	p := &TextParser{}
	conv, err := p.Parse(strings.NewReader("page one\fpage two\fpage three"), "notes.txt")
	require.NoError(t, err)

	assert.Equal(t, 3, conv.Metadata.TotalPages)
	assert.Equal(t, "notes", conv.Metadata.Title)
	assert.Equal(t, "txt", conv.Metadata.FileType)
	assert.Equal(t, "page one\n\npage two\n\npage three", conv.CleanedText)
	assert.Empty(t, conv.TOC)
}

func TestTextParser_EmptyInput(t *testing.T) {
	conv, err := (&TextParser{}).Parse(strings.NewReader(""), "empty.txt")
	require.NoError(t, err)
	assert.Empty(t, conv.CleanedText)
	assert.Equal(t, 1, conv.Metadata.TotalPages)
}

func TestMarkdownParser_HeadingsBecomeTOC(t *testing.T) {
	input := "# Title\n\nIntro text.\n\n## Section A\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n## Section B\n\nDone.\n"
	conv, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "doc.md")
	require.NoError(t, err)

	assert.Equal(t, "Title", conv.Metadata.Title)
	assert.Equal(t, "## CONTENTS\nTitle\nSection A\nSection B", conv.TOC)
	assert.Equal(t, input, conv.CleanedText)
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	conv, err := (&MarkdownParser{}).Parse(strings.NewReader("Just some plain text."), "plain.md")
	require.NoError(t, err)
	assert.Empty(t, conv.TOC)
	assert.Equal(t, "plain", conv.Metadata.Title)
}

func TestMarkdownParser_SingleHeadingIsNotTOC(t *testing.T) {
	conv, err := (&MarkdownParser{}).Parse(strings.NewReader("# Only\n\ntext"), "one.md")
	require.NoError(t, err)
	assert.Empty(t, conv.TOC)
	assert.Equal(t, "Only", conv.Metadata.Title)
}

func TestHTMLParser_TitleHeadingsAndTables(t *testing.T) {
	input := `<html><head><title>Staff List</title><style>p{}</style></head><body>
<h1>Staff</h1><p>Current team.</p>
<h2>Engineering</h2>
<table><thead><tr><th>Name</th><th>Age</th></tr></thead><tbody><tr><td>Ana</td><td>30</td></tr></tbody></table>
</body></html>`
	conv, err := NewHTMLParser().Parse(strings.NewReader(input), "staff.html")
	require.NoError(t, err)

	assert.Equal(t, "Staff List", conv.Metadata.Title)
	assert.Equal(t, "## CONTENTS\nStaff\nEngineering", conv.TOC)
	assert.Contains(t, conv.CleanedText, "Current team.")

	found := false
	for _, line := range strings.Split(conv.CleanedText, "\n") {
		if chunker.IsTableRow(line) && strings.Contains(line, "Ana") && strings.Contains(line, "30") {
			found = true
		}
	}
	assert.True(t, found, "expected a pipe row for the table body, got %q", conv.CleanedText)
}

func TestCSVParser_MarkdownTable(t *testing.T) {
	input := "name,role\nAna,lead\nLuis\n\"a|b\",dev\n"
	conv, err := (&CSVParser{}).Parse(strings.NewReader(input), "staff.csv")
	require.NoError(t, err)

	want := "| name | role |\n| --- | --- |\n| Ana | lead |\n| Luis | - |\n| a\\|b | dev |"
	assert.Equal(t, want, conv.CleanedText)
	for _, line := range strings.Split(conv.CleanedText, "\n") {
		assert.True(t, chunker.IsTableRow(line), "line %q", line)
	}
}

func TestCSVParser_Empty(t *testing.T) {
	conv, err := (&CSVParser{}).Parse(strings.NewReader(""), "empty.csv")
	require.NoError(t, err)
	assert.Empty(t, conv.CleanedText)
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     any
	}{
		{"a.txt", &TextParser{}},
		{"a.MD", &MarkdownParser{}},
		{"a.markdown", &MarkdownParser{}},
		{"a.csv", &CSVParser{}},
		{"a.pdf", &PDFParser{FallbackPdftotext: true}},
		{"a.docx", &DOCXParser{}},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename, Options{FallbackPdftotext: true})
		require.NoError(t, err, tt.filename)
		assert.IsType(t, tt.want, p, tt.filename)
	}

	p, err := ForFile("page.htm", Options{})
	require.NoError(t, err)
	assert.IsType(t, &HTMLParser{}, p)

	_, err = ForFile("archive.zip", Options{})
	assert.ErrorContains(t, err, ".zip")
}

func TestIsSupportedExtension(t *testing.T) {
	assert.True(t, IsSupportedExtension("/x/y/Report.PDF"))
	assert.False(t, IsSupportedExtension("image.png"))
}

func TestTitleFromFilename(t *testing.T) {
	tests := map[string]string{
		"readme.md":           "readme",
		"notes.markdown":      "notes",
		"/uploads/report.pdf": "report",
		"noext":               "noext",
	}
	for in, want := range tests {
		assert.Equal(t, want, titleFromFilename(in), in)
	}
}

func TestDocxHeadingLevel_NoStyle(t *testing.T) {
	assert.Equal(t, 0, docxHeadingLevel(&docx.Paragraph{}))
}
