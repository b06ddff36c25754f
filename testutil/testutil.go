package testutil

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/hupe1980/glyphscan/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: newRand(seed),
		seed: seed,
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = newRand(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// FillUniform fills dst with uniform values in [0, 1).
func (r *RNG) FillUniform(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float64()
	}
}

// FillGaussian fills dst with standard normal values.
func (r *RNG) FillGaussian(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.NormFloat64()
	}
}

// UnitVector returns a random vector of unit length.
func (r *RNG) UnitVector(dim int) []float64 {
	v := make([]float64, dim)
	for {
		r.FillGaussian(v)
		var sum float64
		for _, x := range v {
			sum += x * x
		}
		if sum > 0 {
			inv := 1 / math.Sqrt(sum)
			for i := range v {
				v[i] *= inv
			}
			return v
		}
	}
}

// UnitVectors returns num random unit vectors.
func (r *RNG) UnitVectors(num, dim int) [][]float64 {
	out := make([][]float64, num)
	for i := range out {
		out[i] = r.UnitVector(dim)
	}
	return out
}

// Perturb returns a copy of v with uniform noise in [-eps, eps) added to each
// component.
func (r *RNG) Perturb(v []float64, eps float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x + (2*r.rand.Float64()-1)*eps
	}
	return out
}

// ClusteredVectors returns num vectors scattered around clusters random unit
// centers with the given per-component spread.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float64) [][]float64 {
	centers := r.UnitVectors(clusters, dim)
	out := make([][]float64, num)
	for i := range out {
		out[i] = r.Perturb(centers[i%clusters], spread)
	}
	return out
}

// Records wraps vectors as glyph records labelled label with ids prefix0, prefix1, ...
func Records(label, prefix string, vecs [][]float64) []model.GlyphRecord {
	out := make([]model.GlyphRecord, len(vecs))
	for i, v := range vecs {
		out[i] = model.GlyphRecord{
			ID:     fmt.Sprintf("%s%d", prefix, i),
			Source: label,
			Vector: v,
		}
	}
	return out
}

// Cosine is a naive reference implementation used to cross-check results.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
