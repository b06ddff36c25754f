package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/hupe1980/glyphscan/model"
)

type framing int

const (
	framingUnknown framing = iota
	framingArray
	framingLines
)

// Decoder reads records from a single JSON array or NDJSON stream.
// It does not own the underlying reader.
type Decoder struct {
	label   string
	br      *bufio.Reader
	framing framing
	dec     *json.Decoder
	pos     int
	err     error
}

// NewDecoder returns a decoder that labels every record with label.
func NewDecoder(r io.Reader, label string) *Decoder {
	return &Decoder{
		label: label,
		br:    bufio.NewReaderSize(newNonFiniteReader(r), 64*1024),
	}
}

var _ Source = (*Decoder)(nil)

// Label returns the label records are tagged with.
func (d *Decoder) Label() string { return d.label }

// Next returns the next record.
func (d *Decoder) Next(ctx context.Context) (model.GlyphRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.GlyphRecord{}, err
	}
	if d.err != nil {
		return model.GlyphRecord{}, d.err
	}

	if d.framing == framingUnknown {
		if err := d.sniff(); err != nil {
			d.err = err
			return model.GlyphRecord{}, err
		}
	}

	if d.framing == framingArray {
		return d.nextElement()
	}
	return d.nextLine()
}

// Close is a no-op; the caller owns the reader.
func (d *Decoder) Close() error { return nil }

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (d *Decoder) sniff() error {
	if head, _ := d.br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = d.br.Discard(len(utf8BOM))
	}
	for {
		b, err := d.br.ReadByte()
		if err == io.EOF {
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("source: read %s: %w", d.label, err)
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := d.br.UnreadByte(); err != nil {
			return err
		}
		if b != '[' {
			d.framing = framingLines
			return nil
		}
		break
	}

	d.framing = framingArray
	d.dec = json.NewDecoder(d.br)
	tok, err := d.dec.Token()
	if err != nil {
		return d.framingError(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("%w: %s: expected '['", ErrFraming, d.label)
	}
	return nil
}

func (d *Decoder) nextElement() (model.GlyphRecord, error) {
	if !d.dec.More() {
		if _, err := d.dec.Token(); err != nil {
			d.err = d.framingError(err)
			return model.GlyphRecord{}, d.err
		}
		d.err = io.EOF
		return model.GlyphRecord{}, io.EOF
	}

	d.pos++
	var raw json.RawMessage
	if err := d.dec.Decode(&raw); err != nil {
		d.err = d.framingError(err)
		return model.GlyphRecord{}, d.err
	}
	return parseRecord(raw, d.label, d.pos)
}

// framingError never wraps io.EOF so a truncated array is not mistaken for
// the end of the stream.
func (d *Decoder) framingError(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	if d.pos > 0 {
		return fmt.Errorf("%w: %s: element %d: %w", ErrFraming, d.label, d.pos, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrFraming, d.label, err)
}

func (d *Decoder) nextLine() (model.GlyphRecord, error) {
	for {
		line, err := d.br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			d.err = fmt.Errorf("source: read %s: %w", d.label, err)
			return model.GlyphRecord{}, d.err
		}
		if len(line) > 0 {
			d.pos++
			if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				return parseRecord(trimmed, d.label, d.pos)
			}
		}
		if err == io.EOF {
			d.err = io.EOF
			return model.GlyphRecord{}, io.EOF
		}
	}
}
