package wellmatrix

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching
var (
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrDegenerateInput = errors.New("degenerate input")
)

// ShapeMismatchError reports matrices that do not share the same row and
// column index.
type ShapeMismatchError struct {
	Op   string
	Want Index
	Got  Index
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want %s, got %s", e.Op, e.Want, e.Got)
}

// Is reports whether target is ErrShapeMismatch
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// IndexOutOfRangeError reports a threshold that does not map onto a
// substance column. Name is set when the threshold was given by name.
type IndexOutOfRangeError struct {
	Index int
	Len   int
	Name  string
}

func (e *IndexOutOfRangeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("threshold for unknown substance %q (dataset has %d substances)", e.Name, e.Len)
	}
	return fmt.Sprintf("threshold index %d out of range for %d substances", e.Index, e.Len)
}

// Is reports whether target is ErrIndexOutOfRange
func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// DegenerateInputError reports input for which no result is defined.
type DegenerateInputError struct {
	Op     string
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is reports whether target is ErrDegenerateInput
func (e *DegenerateInputError) Is(target error) bool {
	return target == ErrDegenerateInput
}
