// Package pagemap estimates page boundaries for extracted text and maps chunks
// back to the page they most likely came from.
//
// The conversion service reports only a page count, so pages are equal
// character shares of the normalized text. Attribution is therefore an
// approximation: a chunk whose text is not found verbatim (overlap seeding,
// dropped blank lines, repeated boilerplate) is placed proportionally by its
// index.
package pagemap

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// Attributed is a chunk text with its estimated page.
type Attributed struct {
	Text string
	Page int
}

// Split divides text into totalPages pages of ceil(runes/totalPages)
// characters each. Trailing pages may be empty when the text is short.
// totalPages below 1 is treated as 1.
func Split(text string, totalPages int) []doctree.PageText {
	if totalPages < 1 {
		totalPages = 1
	}
	runes := utf8.RuneCountInString(text)
	perPage := int(math.Ceil(float64(runes) / float64(totalPages)))

	pages := make([]doctree.PageText, 0, totalPages)
	rest := text
	for i := 0; i < totalPages; i++ {
		cut := byteOffset(rest, perPage)
		pages = append(pages, doctree.PageText{PageNumber: i + 1, Text: rest[:cut]})
		rest = rest[cut:]
	}
	return pages
}

// Attribute assigns each chunk the page whose byte range contains the
// chunk's first occurrence in the concatenated page text. Offsets past the
// last page go to the last page.
func Attribute(chunks []string, pages []doctree.PageText) []Attributed {
	out := make([]Attributed, 0, len(chunks))
	if len(chunks) == 0 {
		return out
	}

	var sb strings.Builder
	for _, p := range pages {
		sb.WriteString(p.Text)
	}
	full := sb.String()

	for i, c := range chunks {
		offset := strings.Index(full, c)
		if offset < 0 {
			offset = int(math.Round(float64(i) * float64(len(full)) / float64(len(chunks))))
		}
		out = append(out, Attributed{Text: c, Page: pageAt(pages, offset)})
	}
	return out
}

func pageAt(pages []doctree.PageText, offset int) int {
	if len(pages) == 0 {
		return 1
	}
	start := 0
	for _, p := range pages {
		end := start + len(p.Text)
		if offset >= start && offset < end {
			return p.PageNumber
		}
		start = end
	}
	return pages[len(pages)-1].PageNumber
}

// byteOffset returns the byte index just past the first n runes of s.
func byteOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}
