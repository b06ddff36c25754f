// Package sqlite stores scan reports in a SQLite database through sqlx.
//
//	db, err := sqlx.Connect("sqlite", "glyphscan.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rep := sqlite.New(db)
//	err = rep.Report(ctx, report)
//
// Every run gets one row in runs; clusters, cluster_members and near_clones
// reference it by run_id. Tables are created on first use.
package sqlite

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/hupe1980/glyphscan/codec"
	"github.com/hupe1980/glyphscan/model"
)

// DriverName is the database/sql driver name registered by modernc.org/sqlite.
const DriverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id            TEXT PRIMARY KEY,
	started_at        TEXT NOT NULL,
	duration_ns       INTEGER NOT NULL,
	config            TEXT NOT NULL,
	records_seen      INTEGER NOT NULL,
	skipped_invalid   INTEGER NOT NULL,
	skipped_dimension INTEGER NOT NULL,
	glyphs_scanned    INTEGER NOT NULL,
	files             INTEGER NOT NULL,
	dimension         INTEGER NOT NULL,
	zero_norm         INTEGER NOT NULL,
	non_finite        INTEGER NOT NULL,
	buckets           INTEGER NOT NULL,
	largest_bucket    INTEGER NOT NULL,
	candidate_pairs   INTEGER NOT NULL,
	compared_pairs    INTEGER NOT NULL,
	excluded_exact    INTEGER NOT NULL,
	unusable_pairs    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS clusters (
	run_id      TEXT NOT NULL REFERENCES runs(run_id),
	cluster_idx INTEGER NOT NULL,
	fingerprint TEXT NOT NULL,
	size        INTEGER NOT NULL,
	PRIMARY KEY (run_id, cluster_idx)
);
CREATE TABLE IF NOT EXISTS cluster_members (
	run_id      TEXT NOT NULL,
	cluster_idx INTEGER NOT NULL,
	position    INTEGER NOT NULL,
	glyph_id    TEXT NOT NULL,
	source      TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	PRIMARY KEY (run_id, cluster_idx, position)
);
CREATE TABLE IF NOT EXISTS near_clones (
	run_id     TEXT NOT NULL REFERENCES runs(run_id),
	pair_idx   INTEGER NOT NULL,
	a_id       TEXT NOT NULL,
	a_source   TEXT NOT NULL,
	a_seq      INTEGER NOT NULL,
	b_id       TEXT NOT NULL,
	b_source   TEXT NOT NULL,
	b_seq      INTEGER NOT NULL,
	similarity REAL NOT NULL,
	PRIMARY KEY (run_id, pair_idx)
);`

// RunRow is one row of the runs table.
type RunRow struct {
	RunID            string `db:"run_id"`
	StartedAt        string `db:"started_at"`
	DurationNanos    int64  `db:"duration_ns"`
	Config           string `db:"config"`
	RecordsSeen      int    `db:"records_seen"`
	SkippedInvalid   int    `db:"skipped_invalid"`
	SkippedDimension int    `db:"skipped_dimension"`
	GlyphsScanned    int    `db:"glyphs_scanned"`
	Files            int    `db:"files"`
	Dimension        int    `db:"dimension"`
	ZeroNorm         int    `db:"zero_norm"`
	NonFinite        int    `db:"non_finite"`
	Buckets          int    `db:"buckets"`
	LargestBucket    int    `db:"largest_bucket"`
	CandidatePairs   int    `db:"candidate_pairs"`
	ComparedPairs    int    `db:"compared_pairs"`
	ExcludedExact    int    `db:"excluded_exact"`
	UnusablePairs    int    `db:"unusable_pairs"`
}

// ClusterRow is one row of the clusters table.
type ClusterRow struct {
	RunID       string `db:"run_id"`
	ClusterIdx  int    `db:"cluster_idx"`
	Fingerprint string `db:"fingerprint"`
	Size        int    `db:"size"`
}

// MemberRow is one row of the cluster_members table.
type MemberRow struct {
	RunID      string `db:"run_id"`
	ClusterIdx int    `db:"cluster_idx"`
	Position   int    `db:"position"`
	GlyphID    string `db:"glyph_id"`
	Source     string `db:"source"`
	Seq        uint32 `db:"seq"`
}

// PairRow is one row of the near_clones table.
type PairRow struct {
	RunID      string  `db:"run_id"`
	PairIdx    int     `db:"pair_idx"`
	AID        string  `db:"a_id"`
	ASource    string  `db:"a_source"`
	ASeq       uint32  `db:"a_seq"`
	BID        string  `db:"b_id"`
	BSource    string  `db:"b_source"`
	BSeq       uint32  `db:"b_seq"`
	Similarity float64 `db:"similarity"`
}

// Reporter writes reports into a SQLite database.
type Reporter struct {
	db   *sqlx.DB
	once sync.Once
	err  error
}

// New creates a reporter on db. The schema is created lazily.
func New(db *sqlx.DB) *Reporter {
	return &Reporter{db: db}
}

// Open connects to the database file at path and returns a reporter on it.
func Open(ctx context.Context, path string) (*Reporter, error) {
	db, err := sqlx.ConnectContext(ctx, DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: connect %s: %w", path, err)
	}
	return New(db), nil
}

// DB returns the underlying database handle.
func (r *Reporter) DB() *sqlx.DB { return r.db }

// Close closes the database.
func (r *Reporter) Close() error { return r.db.Close() }

func (r *Reporter) ensureSchema(ctx context.Context) error {
	r.once.Do(func() {
		if _, err := r.db.ExecContext(ctx, schema); err != nil {
			r.err = fmt.Errorf("sqlite: create schema: %w", err)
		}
	})
	return r.err
}

// Report writes rep in a single transaction.
func (r *Reporter) Report(ctx context.Context, rep *model.Report) error {
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}

	cfg, err := codec.Default.Marshal(rep.Config)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	s := rep.Summary
	if _, err := tx.NamedExecContext(ctx, `INSERT INTO runs (
		run_id, started_at, duration_ns, config, records_seen, skipped_invalid,
		skipped_dimension, glyphs_scanned, files, dimension, zero_norm, non_finite,
		buckets, largest_bucket, candidate_pairs, compared_pairs, excluded_exact, unusable_pairs
	) VALUES (
		:run_id, :started_at, :duration_ns, :config, :records_seen, :skipped_invalid,
		:skipped_dimension, :glyphs_scanned, :files, :dimension, :zero_norm, :non_finite,
		:buckets, :largest_bucket, :candidate_pairs, :compared_pairs, :excluded_exact, :unusable_pairs
	)`, RunRow{
		RunID:            rep.RunID,
		StartedAt:        rep.StartedAt.UTC().Format(time.RFC3339Nano),
		DurationNanos:    rep.Duration.Nanoseconds(),
		Config:           string(cfg),
		RecordsSeen:      s.RecordsSeen,
		SkippedInvalid:   s.SkippedInvalid,
		SkippedDimension: s.SkippedDimension,
		GlyphsScanned:    s.GlyphsScanned,
		Files:            s.Files,
		Dimension:        s.Dimension,
		ZeroNorm:         s.ZeroNorm,
		NonFinite:        s.NonFinite,
		Buckets:          s.Buckets,
		LargestBucket:    s.LargestBucket,
		CandidatePairs:   s.CandidatePairs,
		ComparedPairs:    s.ComparedPairs,
		ExcludedExact:    s.ExcludedExact,
		UnusablePairs:    s.UnusablePairs,
	}); err != nil {
		return fmt.Errorf("sqlite: insert run: %w", err)
	}

	if err := insertClusters(ctx, tx, rep); err != nil {
		return err
	}
	if err := insertPairs(ctx, tx, rep); err != nil {
		return err
	}
	return tx.Commit()
}

func insertClusters(ctx context.Context, tx *sqlx.Tx, rep *model.Report) error {
	if len(rep.Clusters) == 0 {
		return nil
	}

	cstmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO clusters (run_id, cluster_idx, fingerprint, size)
		VALUES (:run_id, :cluster_idx, :fingerprint, :size)`)
	if err != nil {
		return err
	}
	defer cstmt.Close()

	mstmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO cluster_members (run_id, cluster_idx, position, glyph_id, source, seq)
		VALUES (:run_id, :cluster_idx, :position, :glyph_id, :source, :seq)`)
	if err != nil {
		return err
	}
	defer mstmt.Close()

	for i, c := range rep.Clusters {
		if _, err := cstmt.ExecContext(ctx, ClusterRow{
			RunID: rep.RunID, ClusterIdx: i, Fingerprint: c.Fingerprint, Size: c.Size(),
		}); err != nil {
			return fmt.Errorf("sqlite: insert cluster %d: %w", i, err)
		}
		for j, m := range c.Members {
			if _, err := mstmt.ExecContext(ctx, MemberRow{
				RunID: rep.RunID, ClusterIdx: i, Position: j, GlyphID: m.ID, Source: m.Source, Seq: m.Seq,
			}); err != nil {
				return fmt.Errorf("sqlite: insert cluster member %d/%d: %w", i, j, err)
			}
		}
	}
	return nil
}

func insertPairs(ctx context.Context, tx *sqlx.Tx, rep *model.Report) error {
	if len(rep.Pairs) == 0 {
		return nil
	}

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO near_clones
		(run_id, pair_idx, a_id, a_source, a_seq, b_id, b_source, b_seq, similarity)
		VALUES (:run_id, :pair_idx, :a_id, :a_source, :a_seq, :b_id, :b_source, :b_seq, :similarity)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range rep.Pairs {
		if _, err := stmt.ExecContext(ctx, PairRow{
			RunID: rep.RunID, PairIdx: i,
			AID: p.A.ID, ASource: p.A.Source, ASeq: p.A.Seq,
			BID: p.B.ID, BSource: p.B.Source, BSeq: p.B.Seq,
			Similarity: p.Similarity,
		}); err != nil {
			return fmt.Errorf("sqlite: insert pair %d: %w", i, err)
		}
	}
	return nil
}

// Runs returns all stored runs ordered by start time.
func (r *Reporter) Runs(ctx context.Context) ([]RunRow, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var rows []RunRow
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM runs ORDER BY started_at, run_id`)
	return rows, err
}

// Members returns the cluster members of a run in report order.
func (r *Reporter) Members(ctx context.Context, runID string) ([]MemberRow, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var rows []MemberRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM cluster_members WHERE run_id = ? ORDER BY cluster_idx, position`, runID)
	return rows, err
}

// Pairs returns the near-clone pairs of a run in report order.
func (r *Reporter) Pairs(ctx context.Context, runID string) ([]PairRow, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var rows []PairRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM near_clones WHERE run_id = ? ORDER BY pair_idx`, runID)
	return rows, err
}
