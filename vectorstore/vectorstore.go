// Package vectorstore holds accepted vectors between ingestion and verification.
//
// Vectors are appended once, in stream order, while a run ingests records.
// Seal switches the store to read-only mode; from then on Get may be called
// from any number of goroutines.
//
// Two implementations exist:
//   - Memory: one contiguous float64 arena on the heap
//   - Spill: an append-only temp file, memory-mapped on Seal, so vector data
//     lives in the page cache instead of the Go heap
package vectorstore

import (
	"errors"
	"fmt"
)

var (
	// ErrSealed is returned by Append after Seal.
	ErrSealed = errors.New("vectorstore: store is sealed")
	// ErrNotSealed is returned by Get before Seal.
	ErrNotSealed = errors.New("vectorstore: store is not sealed")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("vectorstore: store is closed")
	// ErrFull is returned when the sequence space is exhausted.
	ErrFull = errors.New("vectorstore: sequence space exhausted")
	// ErrInvalidDimension is returned for a non-positive dimension.
	ErrInvalidDimension = errors.New("vectorstore: dimension must be positive")
)

// ErrWrongDimension is returned when a vector doesn't match the store dimension.
type ErrWrongDimension struct {
	Expected int
	Actual   int
}

func (e *ErrWrongDimension) Error() string {
	return fmt.Sprintf("vectorstore: wrong vector dimension: expected %d, got %d", e.Expected, e.Actual)
}

// ErrOutOfRange is returned by Get for an unknown sequence number.
type ErrOutOfRange struct {
	Seq uint32
	Len int
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("vectorstore: seq %d out of range (len %d)", e.Seq, e.Len)
}

// Reader is the read side used by the near-clone verifier.
type Reader interface {
	Dimension() int
	Len() int
	// Get returns the vector stored under seq. The result may alias internal
	// memory or reuse dst; callers must not modify it.
	Get(seq uint32, dst []float64) ([]float64, error)
}

// Store is an append-only vector store.
type Store interface {
	Reader
	// Append stores vec under the next sequence number and returns it.
	Append(vec []float64) (uint32, error)
	// Seal ends the append phase.
	Seal() error
	Close() error
}

const maxSeq = 1<<32 - 1

func checkAppend(dim, n int, sealed, closed bool, vec []float64) error {
	switch {
	case closed:
		return ErrClosed
	case sealed:
		return ErrSealed
	case len(vec) != dim:
		return &ErrWrongDimension{Expected: dim, Actual: len(vec)}
	case uint64(n) >= maxSeq:
		return ErrFull
	}
	return nil
}

func checkGet(seq uint32, n int, sealed, closed bool) error {
	switch {
	case closed:
		return ErrClosed
	case !sealed:
		return ErrNotSealed
	case int(seq) >= n:
		return &ErrOutOfRange{Seq: seq, Len: n}
	}
	return nil
}
