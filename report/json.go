package report

import (
	"context"
	"io"

	"github.com/hupe1980/glyphscan/codec"
	"github.com/hupe1980/glyphscan/model"
)

// JSON writes the report as one indented JSON document.
type JSON struct {
	w     io.Writer
	codec codec.Codec
}

// NewJSON creates a JSON reporter using codec.Default.
func NewJSON(w io.Writer) *JSON {
	return NewJSONWithCodec(w, codec.Default)
}

// NewJSONWithCodec creates a JSON reporter using c.
func NewJSONWithCodec(w io.Writer, c codec.Codec) *JSON {
	if c == nil {
		c = codec.Default
	}
	return &JSON{w: w, codec: c}
}

// Report implements Reporter.
func (j *JSON) Report(_ context.Context, rep *model.Report) error {
	b, err := j.codec.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = j.w.Write(b)
	return err
}
