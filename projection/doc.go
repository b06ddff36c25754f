// Package projection implements random-hyperplane bucketing for cosine similarity.
//
// A Basis holds N unit directions of dimension D drawn from a seeded PCG
// generator. The Signature of a vector has bit i set when its dot product
// with direction i is >= 0, so the bits of two vectors agree with probability
// 1 - θ/π for an angle θ between them. An Index groups glyph sequence numbers
// by signature; only glyphs sharing a bucket are ever compared exactly.
//
// More projections give smaller buckets and fewer wasted comparisons, but
// raise the chance that a true near-clone pair lands in different buckets.
package projection
