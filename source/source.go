package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/glyphscan/model"
)

// Source is a lazy, single-pass sequence of glyph records.
type Source interface {
	// Next returns the next record, io.EOF at the end of the stream, an
	// *InvalidRecordError for a malformed record (the stream continues), or
	// any other error, which is fatal.
	Next(ctx context.Context) (model.GlyphRecord, error)
	Close() error
}

// ErrFraming is returned when a JSON array input cannot be parsed any further.
var ErrFraming = errors.New("source: malformed JSON array")

// InvalidRecordError describes a record that was skipped.
type InvalidRecordError struct {
	// Label is the source label (file name) of the record.
	Label string
	// Position is the 1-based element index (JSON array) or line number (NDJSON).
	Position int
	Reason   string
	cause    error
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("source: %s:%d: invalid record: %s", e.Label, e.Position, e.Reason)
}

func (e *InvalidRecordError) Unwrap() error { return e.cause }

// IsInvalidRecord reports whether err is a recoverable per-record error.
func IsInvalidRecord(err error) bool {
	var ire *InvalidRecordError
	return errors.As(err, &ire)
}

// Files is implemented by sources that know how many input files they read.
type Files interface {
	Files() int
}
