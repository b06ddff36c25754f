package glyphscan

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/glyphscan/fingerprint"
	"github.com/hupe1980/glyphscan/nearclone"
	"github.com/hupe1980/glyphscan/projection"
)

// Config is the immutable configuration of a Scanner.
type Config struct {
	// Precision is the number of significant decimal digits kept per
	// component when fingerprinting. 1..17.
	Precision int
	// Threshold is the minimum cosine similarity of a near-clone pair.
	Threshold float64
	// NumProjections is the number of sign bits of a bucket key. 1..64.
	NumProjections int
	// Seed seeds the projection basis.
	Seed uint64
	// ProjectionKind selects how basis directions are drawn.
	ProjectionKind projection.Kind
	// IncludeExact also reports exact clones as near-clone pairs.
	IncludeExact bool
	// Workers bounds concurrent bucket verification. 0 means GOMAXPROCS.
	Workers int
	// SpillDir keeps accepted vectors in a memory-mapped temp file in this
	// directory instead of on the heap. Empty means in-memory.
	SpillDir string
	// IOLimitBytesPerSec throttles source reads. 0 means unlimited.
	IOLimitBytesPerSec int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Precision:      fingerprint.DefaultPrecision,
		Threshold:      nearclone.DefaultThreshold,
		NumProjections: projection.DefaultNumProjections,
		Seed:           projection.DefaultSeed,
		ProjectionKind: projection.KindGaussian,
	}
}

func (c Config) validate() error {
	if c.Precision < 1 || c.Precision > fingerprint.MaxPrecision {
		return &ErrInvalidConfig{Field: "precision", Value: c.Precision, cause: fingerprint.ErrInvalidPrecision}
	}
	if _, err := nearclone.NewVerifier(nearclone.Config{Threshold: c.Threshold}); err != nil {
		return &ErrInvalidConfig{Field: "threshold", Value: c.Threshold, cause: err}
	}
	if c.NumProjections < 1 || c.NumProjections > projection.MaxProjections {
		return &ErrInvalidConfig{Field: "projections", Value: c.NumProjections, cause: projection.ErrInvalidProjections}
	}
	if c.ProjectionKind != projection.KindGaussian && c.ProjectionKind != projection.KindRademacher {
		return &ErrInvalidConfig{Field: "projection kind", Value: c.ProjectionKind, cause: projection.ErrUnknownKind}
	}
	if c.Workers < 0 {
		return &ErrInvalidConfig{Field: "workers", Value: c.Workers}
	}
	if c.IOLimitBytesPerSec < 0 {
		return &ErrInvalidConfig{Field: "io limit", Value: c.IOLimitBytesPerSec}
	}
	return nil
}

type options struct {
	cfg              Config
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Scanner.
type Option func(*options)

// WithConfig replaces the whole configuration. Options applied after it
// still override single fields.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithPrecision sets the number of significant digits kept for exact matching.
func WithPrecision(p int) Option {
	return func(o *options) {
		o.cfg.Precision = p
	}
}

// WithThreshold sets the near-clone cosine threshold. Pairs with a similarity
// greater than or equal to t are reported.
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.cfg.Threshold = t
	}
}

// WithProjections sets the number of random projections (bucket key bits).
// More projections mean smaller buckets: faster, but near-clones that straddle
// a hyperplane are missed more often.
func WithProjections(n int) Option {
	return func(o *options) {
		o.cfg.NumProjections = n
	}
}

// WithSeed sets the projection seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.cfg.Seed = seed
	}
}

// WithProjectionKind selects Gaussian or Rademacher projection directions.
func WithProjectionKind(k projection.Kind) Option {
	return func(o *options) {
		o.cfg.ProjectionKind = k
	}
}

// WithIncludeExact controls whether pairs inside one exact-clone group are
// also reported as near-clones.
func WithIncludeExact(include bool) Option {
	return func(o *options) {
		o.cfg.IncludeExact = include
	}
}

// WithWorkers bounds the number of buckets verified concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.cfg.Workers = n
	}
}

// WithSpillDir keeps accepted vectors in a temp file under dir.
//
// Example:
//
//	scanner, _ := glyphscan.New(glyphscan.WithSpillDir(os.TempDir()))
func WithSpillDir(dir string) Option {
	return func(o *options) {
		o.cfg.SpillDir = dir
	}
}

// WithIOLimit throttles source reads to bytesPerSec.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.cfg.IOLimitBytesPerSec = bytesPerSec
	}
}

// WithMetricsCollector configures a metrics collector for monitoring runs.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &glyphscan.BasicMetricsCollector{}
//	scanner, _ := glyphscan.New(glyphscan.WithMetricsCollector(metrics))
//	// ... scan ...
//	stats := metrics.GetStats()
//	fmt.Printf("Glyphs: %d, largest bucket: %d\n", stats.IngestCount, stats.BucketMaxSize)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := glyphscan.NewJSONLogger(slog.LevelInfo)
//	scanner, _ := glyphscan.New(glyphscan.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		cfg:              DefaultConfig(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}

func (c Config) workers() int {
	if c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}
