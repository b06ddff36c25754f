// Package report renders scan reports.
//
// Reporters:
//   - Text: the human-readable console layout
//   - JSON: the full report as one JSON document
//   - sqlite.Reporter (sub-package): runs, clusters and pairs as SQL tables
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/glyphscan/model"
)

// Reporter writes a finished report somewhere.
type Reporter interface {
	Report(ctx context.Context, rep *model.Report) error
}

// Format names a built-in writer-based reporter.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New returns the reporter for format writing to w. Color only affects text.
func New(format Format, w io.Writer, color bool) (Reporter, error) {
	switch format {
	case FormatText, "":
		return NewText(w, TextOptions{Color: color}), nil
	case FormatJSON:
		return NewJSON(w), nil
	default:
		return nil, fmt.Errorf("report: unknown format %q", format)
	}
}

// Multi fans a report out to several reporters, stopping at the first error.
type Multi []Reporter

// Report implements Reporter.
func (m Multi) Report(ctx context.Context, rep *model.Report) error {
	for _, r := range m {
		if err := r.Report(ctx, rep); err != nil {
			return err
		}
	}
	return nil
}
