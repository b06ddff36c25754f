package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/glyphscan/codec"
	"github.com/hupe1980/glyphscan/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Config: model.RunConfig{
			Precision:      17,
			Threshold:      0.9995,
			NumProjections: 12,
			Seed:           47,
			ProjectionKind: "gaussian",
		},
		Clusters: []model.ExactCluster{{
			Fingerprint: "ab12",
			Members: []model.GlyphRef{
				{ID: "g1", Source: "A", Seq: 0},
				{ID: "g2", Source: "B", Seq: 1},
			},
		}},
		Pairs: []model.NearClonePair{{
			A:          model.GlyphRef{ID: "g3", Source: "A", Seq: 2},
			B:          model.GlyphRef{ID: "g4", Source: "B", Seq: 3},
			Similarity: 0.99990059,
		}},
		Summary: model.Summary{RecordsSeen: 4, GlyphsScanned: 4, Files: 2, Dimension: 2},
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewText(&buf, TextOptions{}).Report(context.Background(), sampleReport()))

	want := "Scanned 4 glyphs across 2 files.\n" +
		"\n" +
		"=== EXACT VECTOR CLUSTERS (precision ~17 sig figs) ===\n" +
		"- size=2 :: g1@A, g2@B\n" +
		"\n" +
		"=== NEAR-CLONES (cos ≥ 0.9995) ===\n" +
		"g3@A  <->  g4@B   cos=0.999901\n"
	assert.Equal(t, want, buf.String())
}

func TestText_EmptySections(t *testing.T) {
	rep := sampleReport()
	rep.Clusters = nil
	rep.Pairs = nil
	rep.Summary.SkippedInvalid = 2
	rep.Summary.SkippedDimension = 1

	var buf bytes.Buffer
	require.NoError(t, NewText(&buf, TextOptions{}).Report(context.Background(), rep))

	want := "Scanned 4 glyphs across 2 files.\n" +
		"Skipped 3 records (invalid=2, dimension=1).\n" +
		"\n" +
		"=== EXACT VECTOR CLUSTERS (precision ~17 sig figs) ===\n" +
		"none\n" +
		"\n" +
		"=== NEAR-CLONES (cos ≥ 0.9995) ===\n" +
		"none\n"
	assert.Equal(t, want, buf.String())
}

func TestText_VerboseAndColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewText(&buf, TextOptions{Color: true, Verbose: true}).Report(context.Background(), sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "candidate pairs:")
	assert.Contains(t, out, "unusable pairs:")
	assert.Contains(t, out, "1.5s")
}

func TestJSON(t *testing.T) {
	rep := sampleReport()

	for _, c := range []codec.Codec{codec.GoJSON{}, codec.JSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewJSONWithCodec(&buf, c).Report(context.Background(), rep))

			var got model.Report
			require.NoError(t, c.Unmarshal(buf.Bytes(), &got))
			assert.Equal(t, rep.Clusters, got.Clusters)
			assert.Equal(t, rep.Pairs, got.Pairs)
			assert.Equal(t, rep.Summary, got.Summary)
			assert.Equal(t, rep.Config, got.Config)
			assert.True(t, rep.StartedAt.Equal(got.StartedAt))
			assert.Contains(t, buf.String(), `"exact_clusters"`)
			assert.Contains(t, buf.String(), `"near_clones"`)
		})
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(FormatText, &buf, false)
	require.NoError(t, err)
	assert.IsType(t, &Text{}, r)

	r, err = New(FormatJSON, &buf, false)
	require.NoError(t, err)
	assert.IsType(t, &JSON{}, r)

	_, err = New("xml", &buf, false)
	assert.Error(t, err)
}

type failingReporter struct{ err error }

func (f failingReporter) Report(context.Context, *model.Report) error { return f.err }

func TestMulti(t *testing.T) {
	var a, b bytes.Buffer
	m := Multi{NewText(&a, TextOptions{}), NewJSON(&b)}
	require.NoError(t, m.Report(context.Background(), sampleReport()))
	assert.NotEmpty(t, a.String())
	assert.NotEmpty(t, b.String())

	boom := errors.New("boom")
	var c bytes.Buffer
	err := Multi{failingReporter{boom}, NewJSON(&c)}.Report(context.Background(), sampleReport())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.String())
}
