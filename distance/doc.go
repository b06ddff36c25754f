// Package distance provides the float64 vector math used to verify near-clones.
//
// All functions assume equal-length inputs; the caller checks dimensions.
//
// # Usage
//
//	d := distance.Dot(a, b)
//	n := distance.Norm(a)
//	c := distance.Cosine(a, b)
//	c = distance.CosineWithNorms(a, b, na, nb)
package distance
