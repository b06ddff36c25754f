package nearclone

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/glyphscan/distance"
	"github.com/hupe1980/glyphscan/model"
	"github.com/hupe1980/glyphscan/projection"
	"github.com/hupe1980/glyphscan/resource"
	"github.com/hupe1980/glyphscan/vectorstore"
)

// fixture builds verifier input; glyphs with equal group labels share an exact group.
type fixture struct {
	in    Input
	store *vectorstore.Memory
}

func newFixture(t *testing.T, dim int, vecs [][]float64, groups []uint32) fixture {
	t.Helper()
	store, err := vectorstore.NewMemory(dim)
	require.NoError(t, err)

	in := Input{Vectors: store}
	for i, v := range vecs {
		seq, err := store.Append(v)
		require.NoError(t, err)
		in.Refs = append(in.Refs, model.GlyphRef{ID: fmt.Sprintf("g%d", i), Source: "f.json", Seq: seq})
		in.Norms = append(in.Norms, distance.Norm(v))
		if groups != nil {
			in.Groups = append(in.Groups, groups[i])
		} else {
			in.Groups = append(in.Groups, uint32(i))
		}
	}
	require.NoError(t, store.Seal())
	t.Cleanup(func() { store.Close() })
	return fixture{in: in, store: store}
}

func bucket(seqs ...uint32) projection.Bucket {
	return projection.Bucket{Members: roaring.BitmapOf(seqs...)}
}

func mustVerifier(t *testing.T, cfg Config) *Verifier {
	t.Helper()
	v, err := NewVerifier(cfg)
	require.NoError(t, err)
	return v
}

func TestNewVerifier_Threshold(t *testing.T) {
	for _, th := range []float64{-1, 0, 0.9995, 1} {
		v, err := NewVerifier(Config{Threshold: th})
		require.NoError(t, err)
		assert.Equal(t, th, v.Threshold())
	}
	for _, th := range []float64{-1.01, 1.5, math.NaN()} {
		_, err := NewVerifier(Config{Threshold: th})
		require.ErrorIs(t, err, ErrInvalidThreshold)
	}
}

func TestVerify_NearClone(t *testing.T) {
	f := newFixture(t, 2, [][]float64{{1.0, 0.0}, {0.9999, 0.0141}}, nil)
	v := mustVerifier(t, Config{Threshold: DefaultThreshold})

	res, err := v.Verify(context.Background(), f.in, []projection.Bucket{bucket(0, 1)})
	require.NoError(t, err)

	expected := 0.9999 / math.Sqrt(0.9999*0.9999+0.0141*0.0141)
	require.GreaterOrEqual(t, expected, DefaultThreshold)

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "g0", res.Pairs[0].A.ID)
	assert.Equal(t, "g1", res.Pairs[0].B.ID)
	assert.InDelta(t, expected, res.Pairs[0].Similarity, 1e-15)
	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, 1, res.Compared)
}

func TestVerify_ThresholdBoundary(t *testing.T) {
	vecs := [][]float64{{1, 2, 3}, {1.01, 2, 2.99}}
	f := newFixture(t, 3, vecs, nil)
	exact := distance.CosineWithNorms(vecs[0], vecs[1], f.in.Norms[0], f.in.Norms[1])

	at := mustVerifier(t, Config{Threshold: exact})
	res, err := at.Verify(context.Background(), f.in, []projection.Bucket{bucket(0, 1)})
	require.NoError(t, err)
	require.Len(t, res.Pairs, 1, "similarity equal to the threshold is included")
	assert.Equal(t, exact, res.Pairs[0].Similarity)

	above := mustVerifier(t, Config{Threshold: math.Nextafter(exact, 2)})
	res, err = above.Verify(context.Background(), f.in, []projection.Bucket{bucket(0, 1)})
	require.NoError(t, err)
	assert.Empty(t, res.Pairs, "similarity just below the threshold is excluded")
	assert.Equal(t, 1, res.Compared)
}

func TestVerify_ZeroNorm(t *testing.T) {
	vecs := [][]float64{{0, 0}, {0, 0}, {1, 0}, {1, 1e-9}}
	f := newFixture(t, 2, vecs, []uint32{0, 0, 1, 2})
	v := mustVerifier(t, Config{Threshold: 0.5, IncludeExact: true})

	res, err := v.Verify(context.Background(), f.in, []projection.Bucket{bucket(0, 1, 2, 3)})
	require.NoError(t, err)

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, uint32(2), res.Pairs[0].A.Seq)
	assert.Equal(t, uint32(3), res.Pairs[0].B.Seq)
	assert.Equal(t, 6, res.Candidates)
	assert.Equal(t, 5, res.Unusable)
	assert.Equal(t, 1, res.Compared)
}

func TestVerify_NonFiniteNeverPairs(t *testing.T) {
	vecs := [][]float64{{math.Inf(1), 0}, {math.Inf(1), 0}, {math.NaN(), 1}}
	f := newFixture(t, 2, vecs, []uint32{0, 0, 1})
	v := mustVerifier(t, Config{Threshold: -1, IncludeExact: true})

	res, err := v.Verify(context.Background(), f.in, []projection.Bucket{bucket(0, 1, 2)})
	require.NoError(t, err)
	assert.Empty(t, res.Pairs)
	assert.Equal(t, 3, res.Unusable)
}

func TestVerify_ExactClonePolicy(t *testing.T) {
	vecs := [][]float64{{1, 0}, {1, 0}, {0.99999, 0.0001}}
	groups := []uint32{0, 0, 1}

	t.Run("ExcludedByDefault", func(t *testing.T) {
		f := newFixture(t, 2, vecs, groups)
		v := mustVerifier(t, Config{Threshold: DefaultThreshold})
		res, err := v.Verify(context.Background(), f.in, []projection.Bucket{bucket(0, 1, 2)})
		require.NoError(t, err)

		assert.Equal(t, 1, res.ExcludedExact)
		require.Len(t, res.Pairs, 2)
		assert.Equal(t, [2]uint32{0, 2}, [2]uint32{res.Pairs[0].A.Seq, res.Pairs[0].B.Seq})
		assert.Equal(t, [2]uint32{1, 2}, [2]uint32{res.Pairs[1].A.Seq, res.Pairs[1].B.Seq})
	})

	t.Run("Included", func(t *testing.T) {
		f := newFixture(t, 2, vecs, groups)
		v := mustVerifier(t, Config{Threshold: DefaultThreshold, IncludeExact: true})
		res, err := v.Verify(context.Background(), f.in, []projection.Bucket{bucket(0, 1, 2)})
		require.NoError(t, err)

		assert.Equal(t, 0, res.ExcludedExact)
		require.Len(t, res.Pairs, 3)
		assert.Equal(t, uint32(0), res.Pairs[0].A.Seq)
		assert.Equal(t, uint32(1), res.Pairs[0].B.Seq)
		assert.InDelta(t, 1.0, res.Pairs[0].Similarity, 1e-15)
	})
}

func TestVerify_OnlyWithinBuckets(t *testing.T) {
	vecs := [][]float64{{1, 0}, {1, 0.0001}, {1, 0.0002}, {1, 0.0003}}
	f := newFixture(t, 2, vecs, nil)
	v := mustVerifier(t, Config{Threshold: 0.99})

	res, err := v.Verify(context.Background(), f.in, []projection.Bucket{bucket(0, 2), bucket(1, 3)})
	require.NoError(t, err)

	require.Len(t, res.Pairs, 2)
	assert.Equal(t, [2]uint32{0, 2}, [2]uint32{res.Pairs[0].A.Seq, res.Pairs[0].B.Seq})
	assert.Equal(t, [2]uint32{1, 3}, [2]uint32{res.Pairs[1].A.Seq, res.Pairs[1].B.Seq})
	assert.Equal(t, 2, res.Candidates)
}

func TestVerify_NoSelfPairsAndDeterministic(t *testing.T) {
	const n = 120
	vecs := make([][]float64, n)
	for i := range vecs {
		vecs[i] = []float64{1, float64(i%5) * 1e-4, float64(i%3) * 1e-4}
	}
	f := newFixture(t, 3, vecs, nil)

	basis, err := projection.NewBasis(3, 4, projection.DefaultSeed, projection.KindGaussian)
	require.NoError(t, err)
	ix := projection.NewIndex(basis)
	for i, vec := range vecs {
		_, err := ix.Add(uint32(i), vec)
		require.NoError(t, err)
	}

	var results []Result
	for _, workers := range []int64{1, 8} {
		v := mustVerifier(t, Config{
			Threshold:  0.9999,
			Controller: resource.NewController(resource.Config{MaxWorkers: workers}),
		})
		res, err := v.Verify(context.Background(), f.in, ix.Buckets())
		require.NoError(t, err)
		results = append(results, res)
	}
	assert.Equal(t, results[0], results[1])

	require.NotEmpty(t, results[0].Pairs)
	for i, p := range results[0].Pairs {
		assert.Less(t, p.A.Seq, p.B.Seq)
		if i > 0 {
			prev := results[0].Pairs[i-1]
			assert.True(t, prev.A.Seq < p.A.Seq || (prev.A.Seq == p.A.Seq && prev.B.Seq < p.B.Seq))
		}
	}
	assert.Equal(t, ix.Stats().CandidatePairs, results[0].Candidates)
}

func TestVerify_EmptyInput(t *testing.T) {
	f := newFixture(t, 2, [][]float64{{1, 0}}, nil)
	v := mustVerifier(t, Config{Threshold: DefaultThreshold})

	res, err := v.Verify(context.Background(), f.in, []projection.Bucket{bucket(0)})
	require.NoError(t, err)
	require.NotNil(t, res.Pairs)
	assert.Empty(t, res.Pairs)
	assert.Equal(t, 0, res.Candidates)
}

func TestVerify_InputMismatch(t *testing.T) {
	f := newFixture(t, 2, [][]float64{{1, 0}, {0, 1}}, nil)
	f.in.Norms = f.in.Norms[:1]
	v := mustVerifier(t, Config{Threshold: DefaultThreshold})

	_, err := v.Verify(context.Background(), f.in, nil)
	require.ErrorIs(t, err, ErrInputMismatch)
}

func TestVerify_Cancelled(t *testing.T) {
	f := newFixture(t, 2, [][]float64{{1, 0}, {1, 0.001}}, nil)
	v := mustVerifier(t, Config{Threshold: DefaultThreshold})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Verify(ctx, f.in, []projection.Bucket{bucket(0, 1)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestVerify_SpillStore(t *testing.T) {
	spill, err := vectorstore.NewSpill(t.TempDir(), 2)
	require.NoError(t, err)
	defer spill.Close()

	vecs := [][]float64{{1, 0}, {0.9999, 0.0141}, {0, 1}}
	in := Input{Vectors: spill}
	for i, vec := range vecs {
		seq, err := spill.Append(vec)
		require.NoError(t, err)
		in.Refs = append(in.Refs, model.GlyphRef{ID: fmt.Sprintf("s%d", i), Seq: seq})
		in.Norms = append(in.Norms, distance.Norm(vec))
		in.Groups = append(in.Groups, uint32(i))
	}
	require.NoError(t, spill.Seal())

	v := mustVerifier(t, Config{Threshold: DefaultThreshold})
	res, err := v.Verify(context.Background(), in, []projection.Bucket{bucket(0, 1, 2)})
	require.NoError(t, err)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "s0", res.Pairs[0].A.ID)
	assert.Equal(t, "s1", res.Pairs[0].B.ID)
	assert.Equal(t, 3, res.Compared)
}

func TestVerify_DefaultControllerBoundsWorkers(t *testing.T) {
	vecs := make([][]float64, 64)
	buckets := make([]projection.Bucket, 0, len(vecs)/2)
	for i := range vecs {
		vecs[i] = []float64{1, float64(i)}
		if i%2 == 1 {
			buckets = append(buckets, bucket(uint32(i-1), uint32(i)))
		}
	}
	f := newFixture(t, 2, vecs, nil)

	var v *Verifier
	var peak atomic.Int64
	v = mustVerifier(t, Config{
		Threshold: DefaultThreshold,
		OnBucket: func(BucketStats) {
			n := int64(v.cfg.Controller.ActiveWorkers())
			for {
				cur := peak.Load()
				if n <= cur || peak.CompareAndSwap(cur, n) {
					break
				}
			}
		},
	})
	require.NotNil(t, v.cfg.Controller)
	assert.Equal(t, runtime.GOMAXPROCS(0), v.cfg.Controller.MaxWorkers())

	res, err := v.Verify(context.Background(), f.in, buckets)
	require.NoError(t, err)
	assert.Equal(t, len(buckets), res.Candidates)
	assert.GreaterOrEqual(t, peak.Load(), int64(1))
	assert.LessOrEqual(t, peak.Load(), int64(runtime.GOMAXPROCS(0)))
	assert.Equal(t, 0, v.cfg.Controller.ActiveWorkers())
}

func TestVerify_OnBucket(t *testing.T) {
	f := newFixture(t, 2, [][]float64{{1, 0}, {1, 0.0001}, {0, 1}, {0, 1.0001}, {5, 5}}, nil)

	var calls, confirmed atomic.Int64
	v := mustVerifier(t, Config{
		Threshold: DefaultThreshold,
		OnBucket: func(s BucketStats) {
			calls.Add(1)
			confirmed.Add(int64(s.Confirmed))
		},
	})

	_, err := v.Verify(context.Background(), f.in, []projection.Bucket{bucket(0, 1), bucket(2, 3), bucket(4)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load(), "singleton buckets are not verified")
	assert.Equal(t, int64(2), confirmed.Load())
}
