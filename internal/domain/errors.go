package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by the grid and resampling code wraps
// exactly one of these, so callers can branch with errors.Is.
var (
	// ErrConfiguration reports an unknown grid/projection variant or an
	// invalid parameter combination.
	ErrConfiguration = errors.New("configuration error")

	// ErrShapeMismatch reports a sample array whose length disagrees with the
	// grid it is paired with.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrRange reports a coordinate outside the valid geographic domain or a
	// target definition that yields an empty or oversized grid.
	ErrRange = errors.New("range error")

	// ErrUnsupportedMethod reports an unknown interpolation method name.
	ErrUnsupportedMethod = errors.New("unsupported interpolation method")

	// ErrNumericDegeneracy reports projection parameters for which the
	// transform is undefined.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)

// ShapeMismatchError carries the expected and actual sizes of a mismatched
// array. It matches ErrShapeMismatch under errors.Is.
type ShapeMismatchError struct {
	What     string
	Expected int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s has %d elements, expected %d", ErrShapeMismatch, e.What, e.Got, e.Expected)
}

// Is reports whether target is ErrShapeMismatch.
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}
