package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/glyphscan"
	"github.com/hupe1980/glyphscan/blobstore"
	"github.com/hupe1980/glyphscan/codec"
	"github.com/hupe1980/glyphscan/model"
	"github.com/hupe1980/glyphscan/projection"
	"github.com/hupe1980/glyphscan/report"
	"github.com/hupe1980/glyphscan/report/sqlite"
	"github.com/hupe1980/glyphscan/source"
)

type scanFlags struct {
	precision      int
	threshold      float64
	projections    int
	seed           uint64
	projectionKind string
	includeExact   bool
	workers        int
	spillDir       string
	ioLimit        int64
	configPath     string
	logLevel       string

	format    string
	jsonCodec string
	noColor   bool
	verbose   bool
	out       string
	sqlite    string

	store storeFlags
}

func newScanCmd() *cobra.Command {
	flags := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "scan [files...]",
		Short: "Scan glyph files for exact and near-duplicate vectors",
		Long: `Scan glyph files for exact and near-duplicate vectors.

Inputs are JSON arrays or NDJSON files, optionally compressed (.gz, .zst,
.zstd, .lz4). An input ending in "/" is expanded to every glyph file below it.

Examples:
  # Scan two local files
  glyphscan scan a.json b.ndjson

  # Scan a directory with a looser threshold and write JSON
  glyphscan scan --threshold 0.999 --format json glyphs/

  # Scan an S3 prefix, keep the results in SQLite
  glyphscan scan --store s3 --bucket corpus --prefix exports/ --sqlite runs.db 2024/

  # Scan MinIO and upload the report next to the inputs
  glyphscan scan --store minio --endpoint localhost:9000 --bucket glyphs \
    --access-key minioadmin --secret-key minioadmin --out reports/latest.txt in/`,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, flags, args)
		},
	}
	bindScanFlags(cmd, flags)
	return cmd
}

func bindScanFlags(cmd *cobra.Command, f *scanFlags) {
	def := glyphscan.DefaultConfig()
	fs := cmd.Flags()

	fs.IntVar(&f.precision, "precision", def.Precision, "significant digits kept per component for exact matching (1-17)")
	fs.Float64Var(&f.threshold, "threshold", def.Threshold, "minimum cosine similarity of a near-clone pair")
	fs.IntVar(&f.projections, "projections", def.NumProjections, "number of random projections (bucket key bits, 1-64)")
	fs.Uint64Var(&f.seed, "seed", def.Seed, "projection seed")
	fs.StringVar(&f.projectionKind, "projection-kind", def.ProjectionKind.String(), "projection directions: gaussian or rademacher")
	fs.BoolVar(&f.includeExact, "include-exact", def.IncludeExact, "also report exact clones as near-clone pairs")
	fs.IntVar(&f.workers, "workers", def.Workers, "concurrent bucket verifications (0 = GOMAXPROCS)")
	fs.StringVar(&f.spillDir, "spill-dir", def.SpillDir, "keep vectors in a memory-mapped temp file in this directory")
	fs.Int64Var(&f.ioLimit, "io-limit", def.IOLimitBytesPerSec, "throttle input reads to this many bytes per second (0 = unlimited)")
	fs.StringVar(&f.configPath, "config", "", "YAML config file; explicit flags override it")
	fs.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	fs.StringVar(&f.format, "format", string(report.FormatText), "report format: text or json")
	fs.StringVar(&f.jsonCodec, "json-codec", codec.Default.Name(), "JSON encoder for --format json: go-json or json")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "print scan counters in the text report")
	fs.StringVar(&f.out, "out", "", "write the report to this name in the store instead of stdout")
	fs.StringVar(&f.sqlite, "sqlite", "", "also record the run in this SQLite database")

	f.store.bind(cmd)
}

// options builds scanner options: defaults, then the config file, then every
// flag set on the command line.
func (f *scanFlags) options(cmd *cobra.Command) ([]glyphscan.Option, error) {
	level, err := glyphscan.ParseLogLevel(f.logLevel)
	if err != nil {
		return nil, err
	}
	opts := []glyphscan.Option{glyphscan.WithLogLevel(level)}

	if f.configPath != "" {
		cf, err := glyphscan.LoadConfigFile(f.configPath)
		if err != nil {
			return nil, err
		}
		fileOpts, err := cf.Options()
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileOpts...)
	}

	fs := cmd.Flags()
	if fs.Changed("precision") {
		opts = append(opts, glyphscan.WithPrecision(f.precision))
	}
	if fs.Changed("threshold") {
		opts = append(opts, glyphscan.WithThreshold(f.threshold))
	}
	if fs.Changed("projections") {
		opts = append(opts, glyphscan.WithProjections(f.projections))
	}
	if fs.Changed("seed") {
		opts = append(opts, glyphscan.WithSeed(f.seed))
	}
	if fs.Changed("projection-kind") {
		k, err := projection.ParseKind(f.projectionKind)
		if err != nil {
			return nil, err
		}
		opts = append(opts, glyphscan.WithProjectionKind(k))
	}
	if fs.Changed("include-exact") {
		opts = append(opts, glyphscan.WithIncludeExact(f.includeExact))
	}
	if fs.Changed("workers") {
		opts = append(opts, glyphscan.WithWorkers(f.workers))
	}
	if fs.Changed("spill-dir") {
		opts = append(opts, glyphscan.WithSpillDir(f.spillDir))
	}
	if fs.Changed("io-limit") {
		opts = append(opts, glyphscan.WithIOLimit(f.ioLimit))
	}
	if fs.Changed("log-level") {
		opts = append(opts, glyphscan.WithLogLevel(level))
	}
	return opts, nil
}

func runScan(cmd *cobra.Command, f *scanFlags, args []string) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()

	format := report.Format(f.format)
	if format != report.FormatText && format != report.FormatJSON {
		return fmt.Errorf("unknown format %q (want text or json)", f.format)
	}

	jc, err := codec.ByName(f.jsonCodec)
	if err != nil {
		return err
	}
	rf := renderFunc(format, jc, f.verbose)

	opts, err := f.options(cmd)
	if err != nil {
		return err
	}
	scanner, err := glyphscan.New(opts...)
	if err != nil {
		return err
	}

	store, err := f.store.open(ctx)
	if err != nil {
		return err
	}

	names, err := expandInputs(ctx, store, args)
	if err != nil {
		return err
	}

	src := source.NewMulti(store, names, source.WithController(scanner.Controller()))
	defer src.Close()

	rep, err := scanner.Scan(ctx, src)
	if err != nil {
		return err
	}

	if f.sqlite != "" {
		if err := writeSQLite(ctx, f.sqlite, rep); err != nil {
			return err
		}
	}

	if f.out != "" {
		var buf bytes.Buffer
		if err := rf(ctx, &buf, false, rep); err != nil {
			return err
		}
		if err := store.Put(ctx, f.out, buf.Bytes()); err != nil {
			return fmt.Errorf("write report %s: %w", f.out, err)
		}
		return nil
	}

	useColor := !f.noColor && !color.NoColor
	return rf(ctx, cmd.OutOrStdout(), useColor, rep)
}

// expandInputs resolves arguments ending in "/" to the glyph files listed
// under them. Other arguments are used as given.
func expandInputs(ctx context.Context, store blobstore.Store, args []string) ([]string, error) {
	var names []string
	for _, arg := range args {
		if !strings.HasSuffix(arg, "/") {
			names = append(names, arg)
			continue
		}
		listed, err := store.List(ctx, arg)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", arg, err)
		}
		n := len(names)
		for _, name := range listed {
			if source.IsRecordFile(name) {
				names = append(names, name)
			}
		}
		if len(names) == n {
			return nil, fmt.Errorf("no glyph files under %s", arg)
		}
	}
	return names, nil
}

type renderer func(ctx context.Context, w io.Writer, useColor bool, rep *model.Report) error

func renderFunc(format report.Format, jc codec.Codec, verbose bool) renderer {
	return func(ctx context.Context, w io.Writer, useColor bool, rep *model.Report) error {
		var r report.Reporter
		switch format {
		case report.FormatJSON:
			r = report.NewJSONWithCodec(w, jc)
		default:
			r = report.NewText(w, report.TextOptions{Color: useColor, Verbose: verbose})
		}
		return r.Report(ctx, rep)
	}
}

func writeSQLite(ctx context.Context, path string, rep *model.Report) error {
	r, err := sqlite.Open(ctx, path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Report(ctx, rep)
}
