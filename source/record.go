package source

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/hupe1980/glyphscan/codec"
	"github.com/hupe1980/glyphscan/model"
)

// parseRecord validates one JSON object and converts it to a record.
func parseRecord(raw []byte, label string, pos int) (model.GlyphRecord, error) {
	invalid := func(reason string, cause error) error {
		return &InvalidRecordError{Label: label, Position: pos, Reason: reason, cause: cause}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return model.GlyphRecord{}, invalid("not a JSON object", nil)
	}

	var fields map[string]json.RawMessage
	if err := codec.Default.Unmarshal(raw, &fields); err != nil {
		return model.GlyphRecord{}, invalid("malformed JSON", err)
	}

	id, err := parseID(fields["id"])
	if err != nil {
		return model.GlyphRecord{}, invalid(err.Error(), nil)
	}

	vec, err := parseVector(fields["vec"])
	if err != nil {
		return model.GlyphRecord{}, invalid(err.Error(), nil)
	}

	rec := model.GlyphRecord{ID: id, Source: label, Vector: vec}
	if len(fields) > 2 {
		rec.Metadata = make(map[string][]byte, len(fields)-2)
	}
	for k, v := range fields {
		if k == "id" || k == "vec" {
			continue
		}
		rec.Metadata[k] = bytes.Clone(restoreNonFinite(v))
	}
	return rec, nil
}

func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("missing id")
	}

	if _, ok := nonFiniteValue(raw); ok {
		return "", errors.New("id must be a string or a number")
	}

	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := codec.Default.Unmarshal(raw, &s); err != nil {
			return "", errors.New("malformed id")
		}
		if s == "" {
			return "", errors.New("empty id")
		}
		return s, nil
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := codec.Default.Unmarshal(raw, &n); err != nil {
			return "", errors.New("malformed id")
		}
		return n.String(), nil
	default:
		return "", errors.New("id must be a string or a number")
	}
}

func parseVector(raw json.RawMessage) ([]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New("missing vec")
	}
	if raw[0] != '[' {
		return nil, errors.New("vec must be an array")
	}

	if bytes.Contains(raw, markerPrefix) {
		return parseNonFiniteVector(raw)
	}

	// Pointers tell a JSON null apart from 0.
	var elems []*float64
	if err := codec.Default.Unmarshal(raw, &elems); err != nil {
		return nil, errors.New("vec must contain only numbers")
	}
	if len(elems) == 0 {
		return nil, errors.New("empty vec")
	}

	vec := make([]float64, len(elems))
	for i, e := range elems {
		if e == nil {
			return nil, fmt.Errorf("vec[%d] is null", i)
		}
		vec[i] = *e
	}
	return vec, nil
}

// parseNonFiniteVector is the slow path for vectors holding NaN or infinity
// markers.
func parseNonFiniteVector(raw json.RawMessage) ([]float64, error) {
	var elems []json.RawMessage
	if err := codec.Default.Unmarshal(raw, &elems); err != nil {
		return nil, errors.New("vec must contain only numbers")
	}

	vec := make([]float64, len(elems))
	for i, e := range elems {
		e = bytes.TrimSpace(e)
		if bytes.Equal(e, []byte("null")) {
			return nil, fmt.Errorf("vec[%d] is null", i)
		}
		if f, ok := nonFiniteValue(e); ok {
			vec[i] = f
			continue
		}
		if err := codec.Default.Unmarshal(e, &vec[i]); err != nil {
			return nil, errors.New("vec must contain only numbers")
		}
	}
	return vec, nil
}
