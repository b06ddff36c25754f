package glyphscan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/glyphscan/cluster"
	"github.com/hupe1980/glyphscan/distance"
	"github.com/hupe1980/glyphscan/fingerprint"
	"github.com/hupe1980/glyphscan/model"
	"github.com/hupe1980/glyphscan/nearclone"
	"github.com/hupe1980/glyphscan/projection"
	"github.com/hupe1980/glyphscan/resource"
	"github.com/hupe1980/glyphscan/source"
	"github.com/hupe1980/glyphscan/vectorstore"
)

// Scanner holds a validated configuration and performs scans.
// It is immutable and safe for concurrent use.
type Scanner struct {
	cfg        Config
	logger     *Logger
	metrics    MetricsCollector
	controller *resource.Controller
	engine     *fingerprint.Engine
}

// New creates a Scanner.
//
// Example:
//
//	scanner, err := glyphscan.New(
//	    glyphscan.WithThreshold(0.999),
//	    glyphscan.WithProjections(16),
//	)
func New(optFns ...Option) (*Scanner, error) {
	o := applyOptions(optFns)
	if err := o.cfg.validate(); err != nil {
		return nil, err
	}

	engine, err := fingerprint.NewEngine(o.cfg.Precision)
	if err != nil {
		return nil, &ErrInvalidConfig{Field: "precision", Value: o.cfg.Precision, cause: err}
	}

	return &Scanner{
		cfg:     o.cfg,
		logger:  o.logger,
		metrics: o.metricsCollector,
		controller: resource.NewController(resource.Config{
			MaxWorkers:         int64(o.cfg.workers()),
			IOLimitBytesPerSec: o.cfg.IOLimitBytesPerSec,
		}),
		engine: engine,
	}, nil
}

// Config returns the scanner configuration.
func (s *Scanner) Config() Config {
	return s.cfg
}

// Controller returns the worker and IO budget shared by all runs. Pass it to
// source.WithController to apply the IO limit to file reads.
func (s *Scanner) Controller() *resource.Controller {
	return s.controller
}

// Scan reads src to the end and returns the report. Malformed records and
// records with the wrong dimension are counted and skipped; any other source
// error aborts the scan. The caller keeps ownership of src.
func (s *Scanner) Scan(ctx context.Context, src source.Source) (*model.Report, error) {
	run, err := s.NewRun(ctx)
	if err != nil {
		return nil, err
	}
	defer run.Close()

	for {
		rec, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if source.IsInvalidRecord(err) {
			if err := run.Skip(ctx, err); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			run.fail(ctx, err)
			return nil, err
		}
		if err := run.Ingest(ctx, rec); err != nil && !IsRecoverable(err) {
			run.fail(ctx, err)
			return nil, err
		}
	}

	if f, ok := src.(source.Files); ok {
		run.files = f.Files()
	}
	return run.Finalize(ctx)
}

type runState int

const (
	stateIdle runState = iota
	stateIngesting
	stateFinalizing
	stateReported
	stateFailed
)

func (s runState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateIngesting:
		return "ingesting"
	case stateFinalizing:
		return "finalizing"
	case stateReported:
		return "reported"
	default:
		return "failed"
	}
}

// Run is a single scan in progress. It is not safe for concurrent use.
type Run struct {
	s       *Scanner
	id      string
	started time.Time
	state   runState
	logger  *Logger

	dim     int
	index   *projection.Index
	vectors vectorstore.Store
	builder *cluster.Builder
	refs    []model.GlyphRef
	norms   []float64
	groups  []uint32

	labels  map[string]struct{}
	files   int
	summary model.Summary
}

// NewRun starts a run in the Idle state.
func (s *Scanner) NewRun(ctx context.Context) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	r := &Run{
		s:       s,
		id:      id,
		started: time.Now(),
		logger:  s.logger.WithRunID(id),
		builder: cluster.NewBuilder(),
		labels:  make(map[string]struct{}),
	}
	r.logger.LogRunStarted(ctx, s.cfg)
	return r, nil
}

// ID returns the run id.
func (r *Run) ID() string { return r.id }

// Summary returns the counters collected so far.
func (r *Run) Summary() model.Summary { return r.summary }

func (r *Run) checkIngest() error {
	switch r.state {
	case stateIdle, stateIngesting:
		r.state = stateIngesting
		return nil
	default:
		return fmt.Errorf("%w: ingest while %s", ErrInvalidState, r.state)
	}
}

// Ingest validates rec and adds it to the run.
//
// A record with an empty id or vector is rejected with *source.InvalidRecordError
// and one whose length differs from the run dimension with
// *ErrDimensionMismatch. Both are counted, and the run stays usable
// (see IsRecoverable). Any other error is fatal for the run.
func (r *Run) Ingest(ctx context.Context, rec model.GlyphRecord) error {
	if err := r.checkIngest(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	r.summary.RecordsSeen++
	r.labels[rec.Source] = struct{}{}

	if rec.ID == "" || len(rec.Vector) == 0 {
		reason := "missing id"
		if rec.ID != "" {
			reason = "empty vec"
		}
		err := &source.InvalidRecordError{Label: rec.Source, Position: r.summary.RecordsSeen, Reason: reason}
		r.reject(ctx, SkipInvalid, rec.Source, err)
		return err
	}

	if r.dim == 0 {
		if err := r.fixDimension(ctx, len(rec.Vector)); err != nil {
			return err
		}
	} else if len(rec.Vector) != r.dim {
		err := &ErrDimensionMismatch{Expected: r.dim, Actual: len(rec.Vector), ID: rec.ID, Source: rec.Source}
		r.reject(ctx, SkipDimension, rec.Source, err)
		return err
	}

	seq, err := r.vectors.Append(rec.Vector)
	if err != nil {
		return err
	}
	if _, err := r.index.Add(seq, rec.Vector); err != nil {
		return err
	}

	ref := model.GlyphRef{ID: rec.ID, Source: rec.Source, Seq: seq}
	group := r.builder.Add(r.s.engine.Fingerprint(rec.Vector), ref)

	norm := distance.Norm(rec.Vector)
	switch {
	case !distance.IsFinite(rec.Vector):
		r.summary.NonFinite++
	case norm == 0:
		r.summary.ZeroNorm++
	}

	r.refs = append(r.refs, ref)
	r.norms = append(r.norms, norm)
	r.groups = append(r.groups, group)
	r.summary.GlyphsScanned++

	r.s.metrics.RecordIngest(time.Since(start))
	return nil
}

// Skip counts a record the source could not parse.
func (r *Run) Skip(ctx context.Context, cause error) error {
	if err := r.checkIngest(); err != nil {
		return err
	}
	r.summary.RecordsSeen++

	var label string
	var ire *source.InvalidRecordError
	if errors.As(cause, &ire) {
		label = ire.Label
	}
	r.reject(ctx, SkipInvalid, label, cause)
	return nil
}

func (r *Run) reject(ctx context.Context, reason SkipReason, label string, err error) {
	switch reason {
	case SkipDimension:
		r.summary.SkippedDimension++
	default:
		r.summary.SkippedInvalid++
	}
	r.s.metrics.RecordSkip(reason)
	if label != "" {
		r.labels[label] = struct{}{}
	}
	r.logger.WithSource(label).LogSkip(ctx, err)
}

func (r *Run) fixDimension(ctx context.Context, dim int) error {
	basis, err := projection.NewBasis(dim, r.s.cfg.NumProjections, r.s.cfg.Seed, r.s.cfg.ProjectionKind)
	if err != nil {
		return err
	}

	var (
		store vectorstore.Store
		spill string
	)
	if r.s.cfg.SpillDir != "" {
		sp, err := vectorstore.NewSpill(r.s.cfg.SpillDir, dim)
		if err != nil {
			return fmt.Errorf("glyphscan: create spill store: %w", err)
		}
		store, spill = sp, sp.Path()
	} else {
		store, err = vectorstore.NewMemory(dim)
		if err != nil {
			return err
		}
	}

	r.dim = dim
	r.index = projection.NewIndex(basis)
	r.vectors = store
	r.logger = r.logger.WithDimension(dim)
	r.logger.LogDimensionFixed(ctx, dim, spill)
	return nil
}

// Finalize builds the exact clusters and verifies the near-clone candidates
// concurrently, then returns the report. It fails with ErrNoGlyphs if no
// record was accepted. The run's vector storage is released either way.
func (r *Run) Finalize(ctx context.Context) (*model.Report, error) {
	switch r.state {
	case stateIdle, stateIngesting:
	default:
		return nil, fmt.Errorf("%w: finalize while %s", ErrInvalidState, r.state)
	}
	r.state = stateFinalizing
	defer r.Close()

	rep, err := r.finalize(ctx)
	if err != nil {
		r.fail(ctx, err)
		return nil, err
	}

	r.state = stateReported
	r.s.metrics.RecordScan(rep.Summary, rep.Duration, nil)
	r.logger.LogRunFinished(ctx, rep.Summary, rep.Duration, nil)
	return rep, nil
}

func (r *Run) finalize(ctx context.Context) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.summary.GlyphsScanned == 0 {
		return nil, ErrNoGlyphs
	}
	if err := r.vectors.Seal(); err != nil {
		return nil, err
	}

	verifier, err := nearclone.NewVerifier(nearclone.Config{
		Threshold:    r.s.cfg.Threshold,
		IncludeExact: r.s.cfg.IncludeExact,
		Controller:   r.s.controller,
		OnBucket: func(bs nearclone.BucketStats) {
			r.s.metrics.RecordBucket(bs.Size, bs.Compared, bs.Confirmed, bs.Duration)
		},
	})
	if err != nil {
		return nil, err
	}

	var (
		clusters []model.ExactCluster
		result   nearclone.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		clusters = r.builder.Finalize()
		return nil
	})
	g.Go(func() error {
		var err error
		result, err = verifier.Verify(gctx, nearclone.Input{
			Vectors: r.vectors,
			Refs:    r.refs,
			Norms:   r.norms,
			Groups:  r.groups,
		}, r.index.Buckets())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := r.index.Stats()
	r.summary.Dimension = r.dim
	r.summary.Files = r.files
	if r.summary.Files == 0 {
		r.summary.Files = len(r.labels)
	}
	r.summary.Buckets = stats.Buckets
	r.summary.LargestBucket = stats.LargestBucket
	r.summary.CandidatePairs = stats.CandidatePairs
	r.summary.ComparedPairs = result.Compared
	r.summary.ExcludedExact = result.ExcludedExact
	r.summary.UnusablePairs = result.Unusable

	return &model.Report{
		RunID:     r.id,
		StartedAt: r.started,
		Duration:  time.Since(r.started),
		Config: model.RunConfig{
			Precision:      r.s.cfg.Precision,
			Threshold:      r.s.cfg.Threshold,
			NumProjections: r.s.cfg.NumProjections,
			Seed:           r.s.cfg.Seed,
			ProjectionKind: r.s.cfg.ProjectionKind.String(),
			IncludeExact:   r.s.cfg.IncludeExact,
		},
		Clusters: clusters,
		Pairs:    result.Pairs,
		Summary:  r.summary,
	}, nil
}

func (r *Run) fail(ctx context.Context, err error) {
	if r.state == stateFailed || r.state == stateReported {
		return
	}
	r.state = stateFailed
	elapsed := time.Since(r.started)
	r.s.metrics.RecordScan(r.summary, elapsed, err)
	r.logger.LogRunFinished(ctx, r.summary, elapsed, err)
	_ = r.Close()
}

// Close releases the run's vector storage. It is safe to call more than once.
// A run closed before Finalize cannot be used afterwards.
func (r *Run) Close() error {
	if r.state == stateIdle || r.state == stateIngesting {
		r.state = stateFailed
	}
	if r.vectors == nil {
		return nil
	}
	err := r.vectors.Close()
	r.vectors = nil
	return err
}
