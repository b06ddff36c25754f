// Package testutil provides deterministic glyph generators for tests and
// benchmarks.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float64, 128)
//	rng.FillUniform(vec)   // uniform [0, 1)
//	rng.FillGaussian(vec)  // standard normal
//
// # Clone Corpora
//
//	base := rng.UnitVector(64)
//	near := rng.Perturb(base, 1e-4)  // cosine close to 1
//	recs := testutil.Records("a.json", "g", vecs)
package testutil
