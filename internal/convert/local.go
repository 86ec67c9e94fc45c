package convert

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/parser"
)

// Local converts documents in-process with the parser package. The file must
// be readable from this host.
type Local struct {
	opts parser.Options
}

func NewLocal(opts parser.Options) *Local {
	return &Local{opts: opts}
}

func (l *Local) Convert(ctx context.Context, docPath, mimetype string) (*doctree.Conversion, error) {
	if err := ctx.Err(); err != nil {
		return nil, &UnavailableError{Timeout: errors.Is(err, context.DeadlineExceeded), Err: err}
	}
	p, err := parser.ForFile(docPath, l.opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(docPath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	conv, err := p.Parse(f, docPath)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", docPath, err)
	}
	if conv.Metadata.TotalPages <= 0 {
		conv.Metadata.TotalPages = 1
	}
	return conv, nil
}
