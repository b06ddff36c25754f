package nearclone

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/glyphscan/distance"
	"github.com/hupe1980/glyphscan/model"
	"github.com/hupe1980/glyphscan/projection"
	"github.com/hupe1980/glyphscan/resource"
	"github.com/hupe1980/glyphscan/vectorstore"
)

// DefaultThreshold is the default cosine similarity threshold.
const DefaultThreshold = 0.9995

var (
	// ErrInvalidThreshold is returned for a threshold outside [-1, 1].
	ErrInvalidThreshold = errors.New("nearclone: threshold must be in [-1, 1]")
	// ErrInputMismatch is returned when the per-glyph inputs disagree in length.
	ErrInputMismatch = errors.New("nearclone: input slices and vector store disagree in length")
)

// BucketStats is reported for every verified bucket.
type BucketStats struct {
	Size      int
	Compared  int
	Confirmed int
	Duration  time.Duration
}

// Config configures a Verifier.
type Config struct {
	// Threshold is the minimum cosine similarity of a reported pair.
	Threshold float64
	// IncludeExact also reports pairs whose glyphs share an exact-clone group.
	IncludeExact bool
	// Controller bounds the number of concurrently verified buckets. When nil,
	// the verifier uses its own controller limited to GOMAXPROCS.
	Controller *resource.Controller
	// OnBucket is called after each bucket with >= 2 members. It may be
	// called concurrently. Optional.
	OnBucket func(BucketStats)
}

// Input holds the per-glyph data indexed by sequence number.
type Input struct {
	Vectors vectorstore.Reader
	Refs    []model.GlyphRef
	Norms   []float64
	// Groups holds the exact-clone group id of every glyph.
	Groups []uint32
}

// Result is the outcome of a verification pass.
type Result struct {
	Pairs []model.NearClonePair
	// Candidates counts all within-bucket pairs.
	Candidates int
	// Compared counts cosine computations.
	Compared int
	// ExcludedExact counts candidates dropped as members of one exact-clone group.
	ExcludedExact int
	// Unusable counts candidates dropped for a zero or non-finite norm.
	Unusable int
}

// Verifier checks bucket candidates against the threshold.
type Verifier struct {
	cfg Config
}

// NewVerifier validates cfg and returns a Verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if math.IsNaN(cfg.Threshold) || cfg.Threshold < -1 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, cfg.Threshold)
	}
	if cfg.Controller == nil {
		cfg.Controller = resource.NewController(resource.Config{MaxWorkers: int64(runtime.GOMAXPROCS(0))})
	}
	return &Verifier{cfg: cfg}, nil
}

// Threshold returns the configured threshold.
func (v *Verifier) Threshold() float64 {
	return v.cfg.Threshold
}

// Verify checks every bucket with at least two members.
func (v *Verifier) Verify(ctx context.Context, in Input, buckets []projection.Bucket) (Result, error) {
	n := in.Vectors.Len()
	if len(in.Refs) != n || len(in.Norms) != n || len(in.Groups) != n {
		return Result{}, ErrInputMismatch
	}

	parts := make([]Result, len(buckets))
	g, gctx := errgroup.WithContext(ctx)

	for i, b := range buckets {
		if b.Size() < 2 {
			continue
		}
		if err := v.cfg.Controller.AcquireWorker(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer v.cfg.Controller.ReleaseWorker()
			res, err := v.verifyBucket(gctx, in, b)
			if err != nil {
				return err
			}
			parts[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var out Result
	for _, p := range parts {
		out.Pairs = append(out.Pairs, p.Pairs...)
		out.Candidates += p.Candidates
		out.Compared += p.Compared
		out.ExcludedExact += p.ExcludedExact
		out.Unusable += p.Unusable
	}
	if out.Pairs == nil {
		out.Pairs = make([]model.NearClonePair, 0)
	}
	slices.SortFunc(out.Pairs, func(a, b model.NearClonePair) int {
		if c := cmp.Compare(a.A.Seq, b.A.Seq); c != 0 {
			return c
		}
		return cmp.Compare(a.B.Seq, b.B.Seq)
	})
	return out, nil
}

func (v *Verifier) verifyBucket(ctx context.Context, in Input, b projection.Bucket) (Result, error) {
	start := time.Now()
	members := b.Members.ToArray()

	var res Result
	res.Candidates = len(members) * (len(members) - 1) / 2

	usable := members[:0:0]
	for _, seq := range members {
		if distance.Usable(in.Norms[seq]) {
			usable = append(usable, seq)
		}
	}
	nu := len(usable)
	res.Unusable = res.Candidates - nu*(nu-1)/2

	bufA := make([]float64, in.Vectors.Dimension())
	bufB := make([]float64, in.Vectors.Dimension())

	for i := 0; i < nu; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		sa := usable[i]
		a, err := in.Vectors.Get(sa, bufA)
		if err != nil {
			return Result{}, err
		}
		for j := i + 1; j < nu; j++ {
			sb := usable[j]
			if !v.cfg.IncludeExact && in.Groups[sa] == in.Groups[sb] {
				res.ExcludedExact++
				continue
			}
			vb, err := in.Vectors.Get(sb, bufB)
			if err != nil {
				return Result{}, err
			}
			res.Compared++
			sim := distance.CosineWithNorms(a, vb, in.Norms[sa], in.Norms[sb])
			if sim >= v.cfg.Threshold {
				res.Pairs = append(res.Pairs, model.NearClonePair{
					A:          in.Refs[sa],
					B:          in.Refs[sb],
					Similarity: sim,
				})
			}
		}
	}

	if v.cfg.OnBucket != nil {
		v.cfg.OnBucket(BucketStats{
			Size:      len(members),
			Compared:  res.Compared,
			Confirmed: len(res.Pairs),
			Duration:  time.Since(start),
		})
	}
	return res, nil
}
