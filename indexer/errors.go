package indexer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTimeout is wrapped by query failures caused by the request deadline
// elapsing, so callers can tell a slow index apart from a broken one with
// errors.Is.
var ErrTimeout = errors.New("index query timed out")

// QueryError indicates the index service was unreachable, timed out,
// returned a transport error status, or returned a malformed or incomplete
// response. The index is never silently treated as "no results".
type QueryError struct {
	// Status is the HTTP status code for transport-level failures, 0
	// otherwise.
	Status int
	// Messages carries service-level error entries from the response body.
	Messages []string
	Err      error
}

func (e *QueryError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("index query failed with status %d", e.Status)
	case len(e.Messages) > 0:
		return fmt.Sprintf("index query failed: %s", strings.Join(e.Messages, "; "))
	default:
		return fmt.Sprintf("index query failed: %v", e.Err)
	}
}

func (e *QueryError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was caused by the request deadline
// elapsing.
func (e *QueryError) Timeout() bool { return errors.Is(e.Err, ErrTimeout) }

// DataIntegrityError indicates a response parsed at the transport level but
// carried a field that fails domain-level parsing, e.g. a non-numeric
// timestamp. Corrupt index data must not masquerade as a zero value.
type DataIntegrityError struct {
	Field string
	Value string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("index returned unparseable %s value %q", e.Field, e.Value)
}
