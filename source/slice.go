package source

import (
	"context"
	"io"

	"github.com/hupe1980/glyphscan/model"
)

// Slice serves in-memory records.
type Slice struct {
	records []model.GlyphRecord
	i       int
}

// NewSlice returns a source over records. The slice is not copied.
func NewSlice(records []model.GlyphRecord) *Slice {
	return &Slice{records: records}
}

var _ Source = (*Slice)(nil)

// Next returns the next record or io.EOF.
func (s *Slice) Next(ctx context.Context) (model.GlyphRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.GlyphRecord{}, err
	}
	if s.i >= len(s.records) {
		return model.GlyphRecord{}, io.EOF
	}
	rec := s.records[s.i]
	s.i++
	return rec, nil
}

// Close is a no-op.
func (s *Slice) Close() error { return nil }
