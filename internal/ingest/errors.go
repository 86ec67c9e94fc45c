package ingest

import (
	"context"
	"errors"

	"github.com/dgallion1/docchunk/internal/convert"
)

// ErrExtractionEmpty means the collaborator returned no usable text.
// Retrying the same document will not help.
var ErrExtractionEmpty = errors.New("no text could be extracted from the document")

// ErrorKind classifies a failed run for callers deciding whether to retry.
type ErrorKind string

const (
	KindExtractionEmpty ErrorKind = "extraction_empty"
	KindUnavailable     ErrorKind = "collaborator_unavailable"
	KindTimeout         ErrorKind = "collaborator_timeout"
	KindMalformed       ErrorKind = "malformed_response"
	KindInternal        ErrorKind = "internal"
)

// Retryable reports whether a later attempt could succeed.
func (k ErrorKind) Retryable() bool {
	return k == KindUnavailable || k == KindTimeout
}

// Classify maps err onto an ErrorKind. A nil error has no kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var unavailable *convert.UnavailableError
	var malformed *convert.MalformedResponseError
	switch {
	case errors.Is(err, ErrExtractionEmpty):
		return KindExtractionEmpty
	case errors.As(err, &unavailable):
		if unavailable.Timeout {
			return KindTimeout
		}
		return KindUnavailable
	case errors.As(err, &malformed):
		return KindMalformed
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	return KindInternal
}
