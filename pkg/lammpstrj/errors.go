package lammpstrj

import (
	"errors"
	"fmt"
)

// ErrMalformedTrajectory is wrapped by every parse failure: markers out of
// order, unparsable values or blocks shorter than declared.
var ErrMalformedTrajectory = errors.New("malformed trajectory")

// ParseError locates a parse failure in the input.
type ParseError struct {
	Source string
	Frame  int // 0-based frame ordinal
	Line   int // 1-based line number
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s:%d: frame %d: %s", ErrMalformedTrajectory, e.Source, e.Line, e.Frame, e.Msg)
}

// Unwrap makes errors.Is(err, ErrMalformedTrajectory) work.
func (e *ParseError) Unwrap() error {
	return ErrMalformedTrajectory
}
