package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/glyphscan/blobstore"
	"github.com/hupe1980/glyphscan/model"
	"github.com/hupe1980/glyphscan/resource"
)

// Option configures a Multi source.
type Option func(*options)

type options struct {
	controller *resource.Controller
}

// WithController throttles and accounts file reads through rc.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// Multi reads a list of blobs in order, one at a time.
type Multi struct {
	store blobstore.Store
	names []string
	opts  options

	next   int
	files  int
	cur    *Decoder
	closer func() error
}

// NewMulti creates a source over the named blobs. Blobs are opened lazily.
func NewMulti(store blobstore.Store, names []string, optFns ...Option) *Multi {
	m := &Multi{
		store: store,
		names: names,
	}
	for _, fn := range optFns {
		fn(&m.opts)
	}
	return m
}

var (
	_ Source = (*Multi)(nil)
	_ Files  = (*Multi)(nil)
)

// Files returns the number of files opened so far.
func (m *Multi) Files() int { return m.files }

// Next returns the next record across all files.
func (m *Multi) Next(ctx context.Context) (model.GlyphRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return model.GlyphRecord{}, err
		}

		if m.cur == nil {
			if m.next >= len(m.names) {
				return model.GlyphRecord{}, io.EOF
			}
			if err := m.open(ctx, m.names[m.next]); err != nil {
				return model.GlyphRecord{}, err
			}
			m.next++
		}

		rec, err := m.cur.Next(ctx)
		if errors.Is(err, io.EOF) {
			if cerr := m.closeCurrent(); cerr != nil {
				return model.GlyphRecord{}, cerr
			}
			continue
		}
		return rec, err
	}
}

func (m *Multi) open(ctx context.Context, name string) error {
	rc, err := m.store.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("source: open %s: %w", name, err)
	}

	var r io.Reader = rc
	if m.opts.controller != nil {
		r = resource.NewRateLimitedReader(ctx, rc, m.opts.controller)
	}

	dc, err := Decompress(name, r)
	if err != nil {
		_ = rc.Close()
		return fmt.Errorf("source: decompress %s: %w", name, err)
	}

	m.cur = NewDecoder(dc, Label(name))
	m.closer = func() error {
		return errors.Join(dc.Close(), rc.Close())
	}
	m.files++
	return nil
}

func (m *Multi) closeCurrent() error {
	m.cur = nil
	if m.closer == nil {
		return nil
	}
	err := m.closer()
	m.closer = nil
	return err
}

// Close releases the file currently open, if any.
func (m *Multi) Close() error {
	return m.closeCurrent()
}
