// Package convert talks to the document conversion collaborator: the
// remote Docling service or the in-process parsers.
package convert

import (
	"context"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// Converter turns a document on disk into extracted text, an optional
// collaborator TOC and metadata.
type Converter interface {
	Convert(ctx context.Context, docPath, mimetype string) (*doctree.Conversion, error)
}
