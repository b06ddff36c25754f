package projection

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimension is returned for a non-positive basis dimension.
	ErrInvalidDimension = errors.New("projection: dimension must be positive")

	// ErrInvalidProjections is returned when the projection count is outside [1, MaxProjections].
	ErrInvalidProjections = fmt.Errorf("projection: number of projections must be in [1, %d]", MaxProjections)

	// ErrUnknownKind is returned by ParseKind for an unsupported name.
	ErrUnknownKind = errors.New("projection: unknown kind")
)

// ErrDimensionMismatch is returned when a vector does not match the basis dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("projection: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
