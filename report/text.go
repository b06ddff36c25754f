package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/hupe1980/glyphscan/model"
)

// TextOptions configures the text reporter.
type TextOptions struct {
	// Color enables ANSI colors.
	Color bool
	// Verbose adds a counter block after the headline.
	Verbose bool
}

// Text writes the console layout:
//
//	Scanned 4 glyphs across 2 files.
//
//	=== EXACT VECTOR CLUSTERS (precision ~17 sig figs) ===
//	- size=2 :: g1@a.json, g2@b.json
//
//	=== NEAR-CLONES (cos ≥ 0.9995) ===
//	g3@a.json  <->  g4@b.json   cos=0.999901
type Text struct {
	w    io.Writer
	opts TextOptions

	header *color.Color
	dim    *color.Color
	warn   *color.Color
	cross  *color.Color
}

// NewText creates a text reporter.
func NewText(w io.Writer, opts TextOptions) *Text {
	t := &Text{
		w:      w,
		opts:   opts,
		header: color.New(color.FgCyan, color.Bold),
		dim:    color.New(color.FgHiBlack),
		warn:   color.New(color.FgYellow),
		cross:  color.New(color.FgMagenta),
	}
	for _, c := range []*color.Color{t.header, t.dim, t.warn, t.cross} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

// Report implements Reporter.
func (t *Text) Report(_ context.Context, rep *model.Report) error {
	bw := bufio.NewWriter(t.w)
	s := rep.Summary

	fmt.Fprintf(bw, "Scanned %d glyphs across %d files.\n", s.GlyphsScanned, s.Files)
	if s.Skipped() > 0 {
		fmt.Fprintln(bw, t.warn.Sprintf("Skipped %d records (invalid=%d, dimension=%d).",
			s.Skipped(), s.SkippedInvalid, s.SkippedDimension))
	}
	if t.opts.Verbose {
		t.writeCounters(bw, rep)
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, t.header.Sprintf("=== EXACT VECTOR CLUSTERS (precision ~%d sig figs) ===", rep.Config.Precision))
	for _, c := range rep.Clusters {
		members := make([]string, len(c.Members))
		for i, m := range c.Members {
			members[i] = m.String()
		}
		line := fmt.Sprintf("- size=%d :: %s", c.Size(), strings.Join(members, ", "))
		if c.CrossFile() {
			line = t.cross.Sprint(line)
		}
		fmt.Fprintln(bw, line)
	}
	if len(rep.Clusters) == 0 {
		fmt.Fprintln(bw, t.dim.Sprint("none"))
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, t.header.Sprintf("=== NEAR-CLONES (cos ≥ %s) ===", strconv.FormatFloat(rep.Config.Threshold, 'g', -1, 64)))
	for _, p := range rep.Pairs {
		fmt.Fprintf(bw, "%s  <->  %s   cos=%.6f\n", p.A, p.B, p.Similarity)
	}
	if len(rep.Pairs) == 0 {
		fmt.Fprintln(bw, t.dim.Sprint("none"))
	}

	return bw.Flush()
}

func (t *Text) writeCounters(w io.Writer, rep *model.Report) {
	s := rep.Summary
	rows := [][2]string{
		{"run", rep.RunID},
		{"records", strconv.Itoa(s.RecordsSeen)},
		{"dimension", strconv.Itoa(s.Dimension)},
		{"zero norm", strconv.Itoa(s.ZeroNorm)},
		{"non-finite", strconv.Itoa(s.NonFinite)},
		{"buckets", fmt.Sprintf("%d (largest %d)", s.Buckets, s.LargestBucket)},
		{"candidate pairs", strconv.Itoa(s.CandidatePairs)},
		{"compared pairs", strconv.Itoa(s.ComparedPairs)},
		{"excluded exact", strconv.Itoa(s.ExcludedExact)},
		{"unusable pairs", strconv.Itoa(s.UnusablePairs)},
		{"elapsed", rep.Duration.String()},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-16s %s\n", t.dim.Sprint(r[0]+":"), r[1])
	}
}
