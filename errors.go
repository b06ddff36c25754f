package glyphscan

import (
	"errors"
	"fmt"

	"github.com/hupe1980/glyphscan/source"
)

var (
	// ErrNoGlyphs is returned by Finalize when not a single record was accepted.
	ErrNoGlyphs = errors.New("glyphscan: no valid glyphs in input")

	// ErrInvalidState is returned when a Run operation is called out of order.
	ErrInvalidState = errors.New("glyphscan: invalid run state")
)

// ErrInvalidConfig indicates an invalid configuration value.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidConfig struct {
	Field string
	Value any
	cause error
}

func (e *ErrInvalidConfig) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("glyphscan: invalid %s %v: %v", e.Field, e.Value, e.cause)
	}
	return fmt.Sprintf("glyphscan: invalid %s %v", e.Field, e.Value)
}

func (e *ErrInvalidConfig) Unwrap() error { return e.cause }

// ErrDimensionMismatch is returned by Ingest for a record whose vector length
// differs from the dimension fixed by the first accepted record.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	ID       string
	Source   string
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("glyphscan: %s@%s: dimension mismatch: expected %d, got %d",
		e.ID, e.Source, e.Expected, e.Actual)
}

// IsRecoverable reports whether err only rejected a single record.
// The run stays usable after such an error.
func IsRecoverable(err error) bool {
	var dm *ErrDimensionMismatch
	return errors.As(err, &dm) || source.IsInvalidRecord(err)
}
