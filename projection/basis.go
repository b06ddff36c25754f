package projection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/hupe1980/glyphscan/distance"
)

const (
	// DefaultNumProjections is the default signature width.
	DefaultNumProjections = 12
	// MaxProjections is the widest signature a BucketKey can hold.
	MaxProjections = 64
	// DefaultSeed seeds the basis when none is configured.
	DefaultSeed uint64 = 47
)

// Kind selects how basis directions are sampled.
type Kind int

const (
	// KindGaussian samples standard normal components, normalized to unit length.
	KindGaussian Kind = iota
	// KindRademacher samples ±1 components, scaled to unit length.
	KindRademacher
)

func (k Kind) String() string {
	switch k {
	case KindGaussian:
		return "gaussian"
	case KindRademacher:
		return "rademacher"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// ParseKind parses "gaussian" or "rademacher" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gaussian":
		return KindGaussian, nil
	case "rademacher":
		return KindRademacher, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// BucketKey is an N-bit hyperplane signature; bit i belongs to direction i.
type BucketKey uint64

// Format renders the low n bits, direction 0 first.
func (k BucketKey) Format(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		if k&(1<<uint(i)) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Basis is an immutable set of projection directions.
// It is safe for concurrent use.
type Basis struct {
	dim  int
	n    int
	seed uint64
	kind Kind
	dirs []float64 // n × dim, row-major
}

// NewBasis draws n directions of dimension dim from a PCG generator seeded with seed.
// Equal arguments always produce an identical basis.
func NewBasis(dim, n int, seed uint64, kind Kind) (*Basis, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	if n < 1 || n > MaxProjections {
		return nil, fmt.Errorf("%w: %d", ErrInvalidProjections, n)
	}
	if kind != KindGaussian && kind != KindRademacher {
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	dirs := make([]float64, n*dim)

	for i := 0; i < n; i++ {
		row := dirs[i*dim : (i+1)*dim]
		switch kind {
		case KindRademacher:
			scale := 1 / math.Sqrt(float64(dim))
			for j := range row {
				if rng.Float64() < 0.5 {
					row[j] = scale
				} else {
					row[j] = -scale
				}
			}
		default:
			for {
				for j := range row {
					row[j] = rng.NormFloat64()
				}
				norm := distance.Norm(row)
				if norm > 0 {
					inv := 1 / norm
					for j := range row {
						row[j] *= inv
					}
					break
				}
			}
		}
	}

	return &Basis{dim: dim, n: n, seed: seed, kind: kind, dirs: dirs}, nil
}

// Dimension returns D.
func (b *Basis) Dimension() int { return b.dim }

// NumProjections returns the number of directions.
func (b *Basis) NumProjections() int { return b.n }

// Seed returns the generator seed.
func (b *Basis) Seed() uint64 { return b.seed }

// Kind returns the sampling scheme.
func (b *Basis) Kind() Kind { return b.kind }

// Direction returns a copy of direction i.
func (b *Basis) Direction(i int) []float64 {
	out := make([]float64, b.dim)
	copy(out, b.dirs[i*b.dim:(i+1)*b.dim])
	return out
}

// Signature computes the bucket key of vec.
// A dot product of exactly zero sets the bit; NaN leaves it clear.
// vec must have length Dimension().
func (b *Basis) Signature(vec []float64) BucketKey {
	var key BucketKey
	for i := 0; i < b.n; i++ {
		if distance.Dot(vec, b.dirs[i*b.dim:(i+1)*b.dim]) >= 0 {
			key |= 1 << uint(i)
		}
	}
	return key
}
