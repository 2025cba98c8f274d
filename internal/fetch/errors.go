package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingContentKind is returned when a stream's source never declared
// what kind of content it carries.
var ErrMissingContentKind = errors.New("fetch: response did not declare a content kind")

// ContentKindError reports a declared content kind outside the accepted set.
// The body is never read when this is returned.
type ContentKindError struct {
	Kind     string
	Accepted []string
}

func (e *ContentKindError) Error() string {
	return fmt.Sprintf("fetch: expected %s, found %q", strings.Join(e.Accepted, " or "), e.Kind)
}

// TransportError wraps a failure of the underlying byte stream: connection
// setup, a bad response status, or a read that died mid-body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
