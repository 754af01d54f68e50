package jets

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Markers for the fatal parse failures. Match them with errors.Is.
var (
	ErrMalformed      = errors.New("malformed line")
	ErrHeaderNotFirst = errors.New("header must be first line")
	ErrMissingHeader  = errors.New("missing header line")
	ErrDuplicateID    = errors.New("duplicate record id")
	ErrUnknownRecord  = errors.New("reference to unknown record")
)

// ParseError is a fatal load failure tied to a line of the input.
// Line is 1-based; 0 means the failure concerns the stream as a whole.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func lineError(line int, marker error, format string, args ...any) error {
	return &ParseError{Line: line, Err: errors.Mark(errors.Newf(format, args...), marker)}
}
