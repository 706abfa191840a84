// Package cmn provides the common types, constants, and error taxonomy
// shared by every tier of the observation cache.
package cmn

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers should compare with errors.Is, since storage
// and ingest failures are always wrapped in *Error before they propagate.
var (
	ErrInvalidFilterSyntax  = errors.New("invalid data filter syntax")
	ErrUnknownParameter     = errors.New("unknown parameter")
	ErrUnsupportedParameter = errors.New("unsupported special parameter")
	ErrUnknownProducer      = errors.New("unknown producer")
	ErrRequestLimitExceeded = errors.New("request limit exceeded")
	ErrCacheMiss            = errors.New("cache miss: upstream query not permitted")
	ErrStorageFailure       = errors.New("storage failure")
	ErrShutdown             = errors.New("operation aborted by shutdown")
)

// Error wraps a sentinel with operation context, the way the ingest and
// mirror layers need to say *where* a storage failure happened without
// losing errors.Is compatibility.
type Error struct {
	Op    string // e.g. "mirror.Upsert", "filter.Compile"
	Cause error
	Msg   string
}

func NewError(op string, cause error, msg string, args ...interface{}) *Error {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &Error{Op: op, Cause: cause, Msg: msg}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// FilterError carries the offending substring of a malformed filter
// expression, per §4.1's failure semantics.
type FilterError struct {
	Name  string
	Bad   string
	Cause error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %q: invalid expression %q: %v", e.Name, e.Bad, e.Cause)
}

func (e *FilterError) Unwrap() error { return e.Cause }

func NewFilterError(name, bad string) *FilterError {
	return &FilterError{Name: name, Bad: bad, Cause: ErrInvalidFilterSyntax}
}
