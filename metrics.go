package glyphscan

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/glyphscan/model"
)

// SkipReason tells why a record was rejected.
type SkipReason int

const (
	// SkipInvalid is a malformed record.
	SkipInvalid SkipReason = iota
	// SkipDimension is a record with the wrong vector length.
	SkipDimension
)

func (r SkipReason) String() string {
	switch r {
	case SkipInvalid:
		return "invalid"
	case SkipDimension:
		return "dimension"
	default:
		return "unknown"
	}
}

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    ingestCounter  prometheus.Counter
//	    bucketSizes    prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordIngest(duration time.Duration) {
//	    p.ingestCounter.Inc()
//	}
//
// Methods may be called concurrently.
type MetricsCollector interface {
	// RecordIngest is called after each accepted glyph.
	RecordIngest(duration time.Duration)

	// RecordSkip is called for each rejected record.
	RecordSkip(reason SkipReason)

	// RecordBucket is called after a bucket with at least two members was
	// verified. compared counts cosine computations, confirmed the pairs kept.
	RecordBucket(size, compared, confirmed int, duration time.Duration)

	// RecordScan is called once per finished run. err is nil if successful.
	RecordScan(summary model.Summary, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIngest(time.Duration)                     {}
func (NoopMetricsCollector) RecordSkip(SkipReason)                          {}
func (NoopMetricsCollector) RecordBucket(int, int, int, time.Duration)      {}
func (NoopMetricsCollector) RecordScan(model.Summary, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IngestCount      atomic.Int64
	IngestTotalNanos atomic.Int64
	SkipInvalid      atomic.Int64
	SkipDimension    atomic.Int64
	BucketCount      atomic.Int64
	BucketMaxSize    atomic.Int64
	BucketTotalNanos atomic.Int64
	ComparedPairs    atomic.Int64
	ConfirmedPairs   atomic.Int64
	ScanCount        atomic.Int64
	ScanErrors       atomic.Int64
	ScanTotalNanos   atomic.Int64
}

// RecordIngest implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIngest(duration time.Duration) {
	b.IngestCount.Add(1)
	b.IngestTotalNanos.Add(duration.Nanoseconds())
}

// RecordSkip implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSkip(reason SkipReason) {
	switch reason {
	case SkipDimension:
		b.SkipDimension.Add(1)
	default:
		b.SkipInvalid.Add(1)
	}
}

// RecordBucket implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBucket(size, compared, confirmed int, duration time.Duration) {
	b.BucketCount.Add(1)
	b.BucketTotalNanos.Add(duration.Nanoseconds())
	b.ComparedPairs.Add(int64(compared))
	b.ConfirmedPairs.Add(int64(confirmed))
	for {
		cur := b.BucketMaxSize.Load()
		if int64(size) <= cur || b.BucketMaxSize.CompareAndSwap(cur, int64(size)) {
			break
		}
	}
}

// RecordScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScan(_ model.Summary, duration time.Duration, err error) {
	b.ScanCount.Add(1)
	b.ScanTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ScanErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IngestCount:    b.IngestCount.Load(),
		IngestAvgNanos: avg(b.IngestTotalNanos.Load(), b.IngestCount.Load()),
		SkipInvalid:    b.SkipInvalid.Load(),
		SkipDimension:  b.SkipDimension.Load(),
		BucketCount:    b.BucketCount.Load(),
		BucketMaxSize:  b.BucketMaxSize.Load(),
		BucketAvgNanos: avg(b.BucketTotalNanos.Load(), b.BucketCount.Load()),
		ComparedPairs:  b.ComparedPairs.Load(),
		ConfirmedPairs: b.ConfirmedPairs.Load(),
		ScanCount:      b.ScanCount.Load(),
		ScanErrors:     b.ScanErrors.Load(),
		ScanAvgNanos:   avg(b.ScanTotalNanos.Load(), b.ScanCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IngestCount    int64
	IngestAvgNanos int64
	SkipInvalid    int64
	SkipDimension  int64
	BucketCount    int64
	BucketMaxSize  int64
	BucketAvgNanos int64
	ComparedPairs  int64
	ConfirmedPairs int64
	ScanCount      int64
	ScanErrors     int64
	ScanAvgNanos   int64
}
