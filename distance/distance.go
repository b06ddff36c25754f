package distance

import (
	"math"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float64) float64 {
	var s0, s1, s2, s3 float64
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for ; i < n; i++ {
		s0 += a[i] * b[i]
	}
	return (s0 + s1) + (s2 + s3)
}

// Norm returns the L2 norm of v. Components are scaled by the largest
// magnitude first, so the result stays exact to rounding for vectors whose
// squared components would underflow or overflow. It is NaN when v holds a
// NaN and +Inf when v holds an infinity or the norm exceeds MaxFloat64.
func Norm(v []float64) float64 {
	m := MaxAbs(v)
	if m == 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return m
	}
	var s0, s1 float64
	n := len(v)
	i := 0
	for ; i+2 <= n; i += 2 {
		x0, x1 := v[i]/m, v[i+1]/m
		s0 += x0 * x0
		s1 += x1 * x1
	}
	for ; i < n; i++ {
		x := v[i] / m
		s0 += x * x
	}
	return m * math.Sqrt(s0+s1)
}

// MaxAbs returns the largest absolute component of v, or NaN when v holds a NaN.
func MaxAbs(v []float64) float64 {
	var m float64
	for _, x := range v {
		if math.IsNaN(x) {
			return math.NaN()
		}
		if ax := math.Abs(x); ax > m {
			m = ax
		}
	}
	return m
}

// Cosine returns dot(a,b) / (‖a‖·‖b‖).
// The result is NaN when either vector has a zero or non-finite norm.
func Cosine(a, b []float64) float64 {
	return CosineWithNorms(a, b, Norm(a), Norm(b))
}

// CosineWithNorms is Cosine with precomputed norms. Every component is divided
// by its vector's norm before multiplying, which keeps the sum in range at any
// vector scale.
func CosineWithNorms(a, b []float64, normA, normB float64) float64 {
	if !Usable(normA) || !Usable(normB) {
		return math.NaN()
	}
	var s0, s1, s2, s3 float64
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 += (a[i] / normA) * (b[i] / normB)
		s1 += (a[i+1] / normA) * (b[i+1] / normB)
		s2 += (a[i+2] / normA) * (b[i+2] / normB)
		s3 += (a[i+3] / normA) * (b[i+3] / normB)
	}
	for ; i < n; i++ {
		s0 += (a[i] / normA) * (b[i] / normB)
	}
	return (s0 + s1) + (s2 + s3)
}

// Usable reports whether a norm can take part in a cosine computation.
func Usable(norm float64) bool {
	return norm > 0 && !math.IsInf(norm, 0) && !math.IsNaN(norm)
}

// IsFinite reports whether every component of v is finite.
func IsFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
