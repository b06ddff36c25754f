package vectorstore

import "fmt"

// Memory stores vectors in a single heap arena.
type Memory struct {
	dim    int
	n      int
	data   []float64
	sealed bool
	closed bool
}

// NewMemory creates an in-memory store for vectors of length dim.
func NewMemory(dim int) (*Memory, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	return &Memory{dim: dim}, nil
}

func (m *Memory) Dimension() int { return m.dim }

func (m *Memory) Len() int { return m.n }

func (m *Memory) Append(vec []float64) (uint32, error) {
	if err := checkAppend(m.dim, m.n, m.sealed, m.closed, vec); err != nil {
		return 0, err
	}
	m.data = append(m.data, vec...)
	seq := uint32(m.n)
	m.n++
	return seq, nil
}

func (m *Memory) Seal() error {
	if m.closed {
		return ErrClosed
	}
	m.sealed = true
	return nil
}

// Get returns a view into the arena; dst is unused.
func (m *Memory) Get(seq uint32, _ []float64) ([]float64, error) {
	if err := checkGet(seq, m.n, m.sealed, m.closed); err != nil {
		return nil, err
	}
	off := int(seq) * m.dim
	return m.data[off : off+m.dim : off+m.dim], nil
}

func (m *Memory) Close() error {
	m.closed = true
	m.data = nil
	return nil
}
