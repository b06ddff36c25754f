package projection

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Bucket is the set of glyph sequence numbers sharing one BucketKey.
type Bucket struct {
	Key     BucketKey
	Members *roaring.Bitmap
}

// Size returns the member count.
func (b Bucket) Size() int {
	return int(b.Members.GetCardinality())
}

// CandidatePairs returns the number of unordered member pairs.
func (b Bucket) CandidatePairs() int {
	n := b.Size()
	return n * (n - 1) / 2
}

// Stats summarizes an Index.
type Stats struct {
	Glyphs         int
	Buckets        int
	LargestBucket  int
	CandidatePairs int
}

// Index maps bucket keys to members in first-seen order.
// Add is not safe for concurrent use; the buckets may be read concurrently
// once ingestion is over.
type Index struct {
	basis   *Basis
	slots   map[BucketKey]int
	buckets []Bucket
	glyphs  int
}

// NewIndex creates an empty index over basis.
func NewIndex(basis *Basis) *Index {
	return &Index{
		basis: basis,
		slots: make(map[BucketKey]int),
	}
}

// Basis returns the projection basis.
func (ix *Index) Basis() *Basis {
	return ix.basis
}

// Add assigns seq to the bucket of vec and returns its key.
func (ix *Index) Add(seq uint32, vec []float64) (BucketKey, error) {
	if len(vec) != ix.basis.dim {
		return 0, &ErrDimensionMismatch{Expected: ix.basis.dim, Actual: len(vec)}
	}

	key := ix.basis.Signature(vec)
	slot, ok := ix.slots[key]
	if !ok {
		slot = len(ix.buckets)
		ix.slots[key] = slot
		ix.buckets = append(ix.buckets, Bucket{Key: key, Members: roaring.New()})
	}
	ix.buckets[slot].Members.Add(seq)
	ix.glyphs++
	return key, nil
}

// Lookup returns the bucket holding key.
func (ix *Index) Lookup(key BucketKey) (Bucket, bool) {
	slot, ok := ix.slots[key]
	if !ok {
		return Bucket{}, false
	}
	return ix.buckets[slot], true
}

// Buckets returns all buckets in the order their keys were first seen.
// The slice and bitmaps are owned by the index and must not be modified.
func (ix *Index) Buckets() []Bucket {
	return ix.buckets
}

// Len returns the number of glyphs added.
func (ix *Index) Len() int {
	return ix.glyphs
}

// Stats returns bucket statistics.
func (ix *Index) Stats() Stats {
	s := Stats{Glyphs: ix.glyphs, Buckets: len(ix.buckets)}
	for _, b := range ix.buckets {
		n := b.Size()
		if n > s.LargestBucket {
			s.LargestBucket = n
		}
		s.CandidatePairs += b.CandidatePairs()
	}
	return s
}
