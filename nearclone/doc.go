// Package nearclone turns projection buckets into verified near-clone pairs.
//
// Candidates are the unordered pairs of distinct members of one bucket; a
// glyph lives in exactly one bucket, so no pair is generated twice. Each
// candidate is checked with the exact float64 cosine similarity and kept
// when it is >= the threshold, so nothing unverified reaches the output.
// Members with a zero or non-finite norm never take part in a pair.
//
// Buckets are independent and are verified concurrently; the output is
// sorted by sequence numbers and does not depend on scheduling.
package nearclone
