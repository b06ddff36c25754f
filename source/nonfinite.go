package source

import (
	"bufio"
	"bytes"
	"io"
	"math"
)

// Bare NaN, Infinity and -Infinity are not JSON, but exporters written in
// languages with lenient encoders emit them. The input is rewritten so that
// each bare token outside a string becomes a marker string the JSON decoder
// accepts; parseVector maps markers back to their values.
var (
	markerPrefix = []byte(`"\u0000glyphscan:`)

	nonFiniteTokens = []struct {
		token  []byte
		marker []byte
		value  float64
	}{
		{[]byte("NaN"), []byte(`"\u0000glyphscan:nan"`), math.NaN()},
		{[]byte("Infinity"), []byte(`"\u0000glyphscan:+inf"`), math.Inf(1)},
		{[]byte("-Infinity"), []byte(`"\u0000glyphscan:-inf"`), math.Inf(-1)},
	}
)

// nonFiniteReader replaces bare non-finite tokens with marker strings.
// Newlines end a string so one broken NDJSON line cannot disable the rewrite
// for the rest of the stream.
type nonFiniteReader struct {
	br       *bufio.Reader
	pending  []byte
	inString bool
	escaped  bool
}

func newNonFiniteReader(r io.Reader) *nonFiniteReader {
	return &nonFiniteReader{br: bufio.NewReaderSize(r, 64*1024)}
}

func (r *nonFiniteReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) > 0 {
			c := copy(p[n:], r.pending)
			r.pending = r.pending[c:]
			n += c
			continue
		}
		// Hand out what we have rather than block on the next fill.
		if n > 0 && r.br.Buffered() == 0 {
			break
		}
		b, err := r.br.ReadByte()
		if err != nil {
			return n, err
		}
		if m := r.rewrite(b); m != nil {
			r.pending = m
			continue
		}
		p[n] = b
		n++
	}
	return n, nil
}

// rewrite tracks string state and returns the marker for a bare token that
// starts with b, consuming the rest of the token. It returns nil otherwise.
func (r *nonFiniteReader) rewrite(b byte) []byte {
	switch {
	case r.inString:
		switch {
		case r.escaped:
			r.escaped = false
		case b == '\\':
			r.escaped = true
		case b == '"' || b == '\n':
			r.inString = false
		}
		return nil
	case b == '"':
		r.inString = true
		return nil
	case b != 'N' && b != 'I' && b != '-':
		return nil
	}

	for _, t := range nonFiniteTokens {
		if t.token[0] != b {
			continue
		}
		rest := t.token[1:]
		next, _ := r.br.Peek(len(rest) + 1)
		if len(next) < len(rest) || !bytes.Equal(next[:len(rest)], rest) {
			continue
		}
		if len(next) > len(rest) && isWordByte(next[len(rest)]) {
			continue
		}
		_, _ = r.br.Discard(len(rest))
		return t.marker
	}
	return nil
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// nonFiniteValue returns the value a marker stands for.
func nonFiniteValue(raw []byte) (float64, bool) {
	if !bytes.HasPrefix(raw, markerPrefix) {
		return 0, false
	}
	for _, t := range nonFiniteTokens {
		if bytes.Equal(raw, t.marker) {
			return t.value, true
		}
	}
	return 0, false
}

// restoreNonFinite turns markers in raw back into the bare tokens they replaced.
func restoreNonFinite(raw []byte) []byte {
	if !bytes.Contains(raw, markerPrefix) {
		return raw
	}
	for _, t := range nonFiniteTokens {
		raw = bytes.ReplaceAll(raw, t.marker, t.token)
	}
	return raw
}
