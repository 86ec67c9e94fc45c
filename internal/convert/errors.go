package convert

import (
	"fmt"
)

// UnavailableError means the collaborator could not be reached or did not
// answer in time. Callers may retry with backoff.
type UnavailableError struct {
	Timeout bool
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("conversion service timed out: %v", e.Err)
	}
	return fmt.Sprintf("conversion service unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// MalformedResponseError means the collaborator answered with a non-2xx
// status or a payload that could not be decoded.
type MalformedResponseError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed conversion response (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("conversion service status %d: %s", e.StatusCode, truncate(e.Body, 200))
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
