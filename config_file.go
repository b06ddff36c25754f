package glyphscan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/glyphscan/projection"
)

// ConfigFile is the YAML form of the scanner configuration. Unset fields keep
// their defaults.
//
//	precision: 12
//	threshold: 0.999
//	projections: 16
//	seed: 7
//	projection_kind: rademacher
//	include_exact: false
//	workers: 8
//	spill_dir: /var/tmp
//	io_limit: 52428800
//	log_level: debug
type ConfigFile struct {
	Precision      *int     `yaml:"precision"`
	Threshold      *float64 `yaml:"threshold"`
	Projections    *int     `yaml:"projections"`
	Seed           *uint64  `yaml:"seed"`
	ProjectionKind string   `yaml:"projection_kind"`
	IncludeExact   *bool    `yaml:"include_exact"`
	Workers        *int     `yaml:"workers"`
	SpillDir       string   `yaml:"spill_dir"`
	IOLimit        *int64   `yaml:"io_limit"`
	LogLevel       string   `yaml:"log_level"`
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("glyphscan: read config: %w", err)
	}
	return ParseConfigFile(data)
}

// ParseConfigFile parses YAML config data. Unknown keys are an error.
func ParseConfigFile(data []byte) (*ConfigFile, error) {
	var f ConfigFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("glyphscan: parse config: %w", err)
	}
	return &f, nil
}

// Options converts the set fields to scanner options.
func (f *ConfigFile) Options() ([]Option, error) {
	var opts []Option
	if f.Precision != nil {
		opts = append(opts, WithPrecision(*f.Precision))
	}
	if f.Threshold != nil {
		opts = append(opts, WithThreshold(*f.Threshold))
	}
	if f.Projections != nil {
		opts = append(opts, WithProjections(*f.Projections))
	}
	if f.Seed != nil {
		opts = append(opts, WithSeed(*f.Seed))
	}
	if f.ProjectionKind != "" {
		k, err := projection.ParseKind(f.ProjectionKind)
		if err != nil {
			return nil, &ErrInvalidConfig{Field: "projection kind", Value: f.ProjectionKind, cause: err}
		}
		opts = append(opts, WithProjectionKind(k))
	}
	if f.IncludeExact != nil {
		opts = append(opts, WithIncludeExact(*f.IncludeExact))
	}
	if f.Workers != nil {
		opts = append(opts, WithWorkers(*f.Workers))
	}
	if f.SpillDir != "" {
		opts = append(opts, WithSpillDir(f.SpillDir))
	}
	if f.IOLimit != nil {
		opts = append(opts, WithIOLimit(*f.IOLimit))
	}
	if f.LogLevel != "" {
		level, err := ParseLogLevel(f.LogLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithLogLevel(level))
	}
	return opts, nil
}

// ParseLogLevel parses debug, info, warn or error (case-insensitive).
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, &ErrInvalidConfig{Field: "log level", Value: s, cause: err}
	}
	return level, nil
}
