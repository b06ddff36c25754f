package source

import (
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var decompressors = map[string]func(io.Reader) (io.ReadCloser, error){
	".gz": func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	},
	".zst":  openZstd,
	".zstd": openZstd,
	".lz4": func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(lz4.NewReader(r)), nil
	},
}

func openZstd(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}

func compressionExt(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if _, ok := decompressors[ext]; ok {
		return ext
	}
	return ""
}

// Label returns the label records of the named file carry: its base name
// without a compression suffix.
func Label(name string) string {
	base := path.Base(filepath.ToSlash(name))
	if ext := compressionExt(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base
}

// Decompress wraps r according to the compression suffix of name.
// Uncompressed files are returned unchanged behind a no-op closer.
func Decompress(name string, r io.Reader) (io.ReadCloser, error) {
	open, ok := decompressors[compressionExt(name)]
	if !ok {
		return io.NopCloser(r), nil
	}
	return open(r)
}

var recordExts = map[string]bool{".json": true, ".ndjson": true, ".jsonl": true}

// IsRecordFile reports whether name looks like a JSON or NDJSON glyph file,
// optionally compressed.
func IsRecordFile(name string) bool {
	return recordExts[strings.ToLower(path.Ext(Label(name)))]
}
