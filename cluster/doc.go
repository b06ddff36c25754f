// Package cluster groups glyphs by fingerprint and emits exact-clone clusters.
package cluster
