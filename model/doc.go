// Package model defines the data types shared by every stage of a scan.
//
// # Input
//
//   - GlyphRecord: identifier, source label, feature vector and opaque metadata
//
// # Identity
//
//   - GlyphRef: (ID, Source) of an accepted glyph plus its stream sequence number
//
// # Results
//
//   - ExactCluster: two or more glyphs sharing one fingerprint
//   - NearClonePair: two glyphs whose cosine similarity met the threshold
//   - Summary: run counters
//   - Report: everything a Reporter needs to render a finished run
package model
