package model

import (
	"fmt"
	"time"
)

// GlyphRecord is one parsed input record.
type GlyphRecord struct {
	// ID identifies the glyph within its source. It is not globally unique.
	ID string
	// Source is the label of the file the record came from.
	Source string
	// Vector is the feature vector. All accepted records of a run share its length.
	Vector []float64
	// Metadata holds the raw JSON of every other field (tags, entropy, ancestry, ...).
	// It is carried through untouched.
	Metadata map[string][]byte
}

// GlyphRef references an accepted glyph.
type GlyphRef struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	// Seq is the 0-based acceptance ordinal of the glyph within the run.
	Seq uint32 `json:"seq"`
}

// String returns "id@source".
func (r GlyphRef) String() string {
	return fmt.Sprintf("%s@%s", r.ID, r.Source)
}

// ExactCluster is a group of at least two glyphs with identical fingerprints.
type ExactCluster struct {
	Fingerprint string     `json:"fingerprint"`
	Members     []GlyphRef `json:"members"`
}

// Size returns the number of members.
func (c ExactCluster) Size() int {
	return len(c.Members)
}

// CrossFile reports whether the cluster spans more than one source label.
func (c ExactCluster) CrossFile() bool {
	for i := 1; i < len(c.Members); i++ {
		if c.Members[i].Source != c.Members[0].Source {
			return true
		}
	}
	return false
}

// NearClonePair is a verified near-clone. A.Seq < B.Seq always holds.
type NearClonePair struct {
	A          GlyphRef `json:"a"`
	B          GlyphRef `json:"b"`
	Similarity float64  `json:"similarity"`
}

// CrossFile reports whether the two glyphs come from different sources.
func (p NearClonePair) CrossFile() bool {
	return p.A.Source != p.B.Source
}

// Summary holds the counters of a finished run.
type Summary struct {
	// RecordsSeen counts every record pulled from the source, valid or not.
	RecordsSeen int `json:"records_seen"`
	// SkippedInvalid counts malformed records.
	SkippedInvalid int `json:"skipped_invalid"`
	// SkippedDimension counts records whose vector length differed from Dimension.
	SkippedDimension int `json:"skipped_dimension"`
	// GlyphsScanned counts accepted glyphs.
	GlyphsScanned int `json:"glyphs_scanned"`
	// Files counts the input files (or distinct source labels).
	Files int `json:"files"`
	// Dimension is the vector length fixed by the first valid record.
	Dimension int `json:"dimension"`
	// ZeroNorm counts accepted glyphs excluded from near-clone pairing by a zero norm.
	ZeroNorm int `json:"zero_norm"`
	// NonFinite counts accepted glyphs with NaN or infinite components.
	NonFinite int `json:"non_finite"`

	Buckets        int `json:"buckets"`
	LargestBucket  int `json:"largest_bucket"`
	CandidatePairs int `json:"candidate_pairs"`
	ComparedPairs  int `json:"compared_pairs"`
	// ExcludedExact counts candidate pairs left out because they are exact clones.
	ExcludedExact int `json:"excluded_exact"`
	// UnusablePairs counts candidate pairs left out because a glyph has a zero
	// or non-finite norm.
	UnusablePairs int `json:"unusable_pairs"`
}

// Skipped returns the total number of rejected records.
func (s Summary) Skipped() int {
	return s.SkippedInvalid + s.SkippedDimension
}

// RunConfig echoes the settings a run used.
type RunConfig struct {
	Precision      int     `json:"precision"`
	Threshold      float64 `json:"threshold"`
	NumProjections int     `json:"num_projections"`
	Seed           uint64  `json:"seed"`
	ProjectionKind string  `json:"projection_kind"`
	IncludeExact   bool    `json:"include_exact"`
}

// Report is the complete output of a run.
type Report struct {
	RunID     string          `json:"run_id"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration_ns"`
	Config    RunConfig       `json:"config"`
	Clusters  []ExactCluster  `json:"exact_clusters"`
	Pairs     []NearClonePair `json:"near_clones"`
	Summary   Summary         `json:"summary"`
}
