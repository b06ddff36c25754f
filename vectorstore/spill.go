package vectorstore

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

const spillBufferSize = 1 << 20

// Spill appends vectors to a temp file as little-endian float64 and maps
// the file read-only on Seal. The file is removed on Close.
type Spill struct {
	dim    int
	n      int
	f      *os.File
	w      *bufio.Writer
	data   []byte
	sealed bool
	closed bool
	scr    []byte
}

// NewSpill creates a spill store with its temp file in dir
// (os.TempDir when dir is empty).
func NewSpill(dir string, dim int) (*Spill, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	f, err := os.CreateTemp(dir, "glyphscan-*.vec")
	if err != nil {
		return nil, fmt.Errorf("vectorstore: create spill file: %w", err)
	}
	return &Spill{
		dim: dim,
		f:   f,
		w:   bufio.NewWriterSize(f, spillBufferSize),
		scr: make([]byte, 8*dim),
	}, nil
}

// Path returns the location of the spill file.
func (s *Spill) Path() string { return s.f.Name() }

func (s *Spill) Dimension() int { return s.dim }

func (s *Spill) Len() int { return s.n }

func (s *Spill) Append(vec []float64) (uint32, error) {
	if err := checkAppend(s.dim, s.n, s.sealed, s.closed, vec); err != nil {
		return 0, err
	}
	for i, x := range vec {
		binary.LittleEndian.PutUint64(s.scr[i*8:], math.Float64bits(x))
	}
	if _, err := s.w.Write(s.scr); err != nil {
		return 0, fmt.Errorf("vectorstore: write spill file: %w", err)
	}
	seq := uint32(s.n)
	s.n++
	return seq, nil
}

func (s *Spill) Seal() error {
	if s.closed {
		return ErrClosed
	}
	if s.sealed {
		return nil
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("vectorstore: flush spill file: %w", err)
	}
	size := s.n * s.dim * 8
	if size > 0 {
		data, err := mapFile(s.f, size)
		if err != nil {
			return fmt.Errorf("vectorstore: map spill file: %w", err)
		}
		s.data = data
	}
	s.sealed = true
	return nil
}

// Get decodes the vector into dst, growing it when needed.
func (s *Spill) Get(seq uint32, dst []float64) ([]float64, error) {
	if err := checkGet(seq, s.n, s.sealed, s.closed); err != nil {
		return nil, err
	}
	if cap(dst) < s.dim {
		dst = make([]float64, s.dim)
	}
	dst = dst[:s.dim]
	off := int(seq) * s.dim * 8
	for i := range dst {
		dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(s.data[off+i*8:]))
	}
	return dst, nil
}

func (s *Spill) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.data != nil {
		errs = append(errs, unmapFile(s.data))
		s.data = nil
	}
	errs = append(errs, s.f.Close(), os.Remove(s.f.Name()))
	return errors.Join(errs...)
}
