package doctree

// SectionType classifies a chunk.
type SectionType string

const (
	SectionParagraph SectionType = "paragraph"
	SectionTOC       SectionType = "toc"
)

// TocTitle is the fixed section title and path of the extracted TOC chunk.
const TocTitle = "ÍNDICE"

// PageText is one estimated page of normalized document text.
// Concatenating Text across pages in PageNumber order yields the full text.
type PageText struct {
	PageNumber int
	Text       string
}

// TocCandidate is a TOC region located in the page text, before or after cleanup.
type TocCandidate struct {
	Page    int
	Content string
}

// Chunk is a bounded segment of document text ready for persistence.
type Chunk struct {
	Index        int         `json:"index" yaml:"index"`
	Text         string      `json:"text" yaml:"text"`
	Page         int         `json:"page" yaml:"page"`
	SectionType  SectionType `json:"section_type" yaml:"section_type"`
	SectionTitle string      `json:"section_title,omitempty" yaml:"section_title,omitempty"`
	Path         []string    `json:"path,omitempty" yaml:"path,omitempty"`
}

// Metadata is what the conversion service reports about a document.
type Metadata struct {
	TotalPages int    `json:"total_pages"`
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	FileType   string `json:"file_type,omitempty"`
}

// Conversion is the raw output of a document conversion service.
type Conversion struct {
	CleanedText string   `json:"cleaned_text"`
	Markdown    string   `json:"markdown,omitempty"`
	TOC         string   `json:"toc,omitempty"`
	Metadata    Metadata `json:"metadata"`
}
