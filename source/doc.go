// Package source turns glyph files into a lazy, single-pass stream of records.
//
// A file is either a JSON array of objects or NDJSON (one object per line);
// the format is sniffed from the first non-space byte. Files ending in .gz,
// .zst/.zstd or .lz4 are decompressed transparently.
//
// Every record must carry an "id" (string or number) and a non-empty "vec"
// array of numbers. Other fields are kept as raw JSON in the record metadata.
// A record that breaks these rules is returned as *InvalidRecordError and the
// stream continues; broken JSON array syntax ends the stream with an error.
package source
