package fingerprint

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEngine(t *testing.T, precision int) *Engine {
	t.Helper()
	e, err := NewEngine(precision)
	require.NoError(t, err)
	return e
}

func TestNewEngine(t *testing.T) {
	for _, p := range []int{1, 9, 17} {
		e, err := NewEngine(p)
		require.NoError(t, err)
		assert.Equal(t, p, e.Precision())
	}

	for _, p := range []int{0, -1, 18, 100} {
		_, err := NewEngine(p)
		require.ErrorIs(t, err, ErrInvalidPrecision)
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name      string
		x         float64
		precision int
		expected  string
	}{
		{"Zero", 0, 17, "0"},
		{"NegativeZero", math.Copysign(0, -1), 17, "0"},
		{"One", 1, 17, "1.0000000000000000e+00"},
		{"Negative", -2.5, 3, "-2.50e+00"},
		{"PlainRounding", 1.2349, 3, "1.23e+00"},
		{"NotATie", 1.235, 3, "1.24e+00"}, // 1.235 is stored as 1.23500000000000009769...
		{"TieAwayFromZero", 0.125, 2, "1.3e-01"},
		{"NegativeTieAwayFromZero", -0.125, 2, "-1.3e-01"},
		{"TieOnOddDigit", 0.375, 2, "3.8e-01"},
		{"TieSingleDigit", 2.5, 1, "3e+00"},
		{"TieCarry", 9.5, 1, "1e+01"},
		{"TieCarryTwoDigits", 99.5, 2, "1.0e+02"},
		{"TieAtFullPrecision", math.Ldexp(1, -25), 17, "2.9802322387695313e-08"},
		{"NaN", math.NaN(), 17, "nan"},
		{"PosInf", math.Inf(1), 17, "+inf"},
		{"NegInf", math.Inf(-1), 17, "-inf"},
		{"ClampLow", 2.5, 0, "3e+00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Canonical(tt.x, tt.precision))
		})
	}
}

func TestCanonical_HalfEvenWouldDiffer(t *testing.T) {
	x := math.Ldexp(1, -25) // exactly 2.98023223876953125e-08
	assert.Equal(t, "2.9802322387695312e-08", strconv.FormatFloat(x, 'e', 16, 64))
	assert.Equal(t, "2.9802322387695313e-08", Canonical(x, 17))
}

func TestFingerprint_Deterministic(t *testing.T) {
	e := mustEngine(t, DefaultPrecision)
	v := []float64{0.1, -2.75, 1e-300, 12345.6789}

	a := e.Fingerprint(v)
	b := e.Fingerprint(v)
	assert.Equal(t, a, b)
	assert.Len(t, a.String(), 2*Size)
}

func TestFingerprint_TextualRepresentation(t *testing.T) {
	e := mustEngine(t, DefaultPrecision)

	parse := func(s string) float64 {
		x, err := strconv.ParseFloat(s, 64)
		require.NoError(t, err)
		return x
	}

	a := []float64{parse("0.1"), parse("2")}
	b := []float64{parse("1.0e-1"), parse("2.000")}
	c := []float64{parse("0.1000000000000000055511151231257827"), parse("20e-1")}

	assert.Equal(t, e.Fingerprint(a), e.Fingerprint(b))
	assert.Equal(t, e.Fingerprint(a), e.Fingerprint(c))
}

func TestFingerprint_Precision(t *testing.T) {
	coarse := mustEngine(t, 3)
	fine := mustEngine(t, DefaultPrecision)

	a := []float64{1.2341, 5}
	b := []float64{1.2344, 5}

	assert.Equal(t, coarse.Fingerprint(a), coarse.Fingerprint(b))
	assert.NotEqual(t, fine.Fingerprint(a), fine.Fingerprint(b))
}

func TestFingerprint_DistinctDoublesAtFullPrecision(t *testing.T) {
	e := mustEngine(t, DefaultPrecision)
	x := 1.0
	y := math.Nextafter(x, 2)
	assert.NotEqual(t, e.Fingerprint([]float64{x}), e.Fingerprint([]float64{y}))
}

func TestFingerprint_SignedZero(t *testing.T) {
	e := mustEngine(t, DefaultPrecision)
	negZero := math.Copysign(0, -1)
	assert.Equal(t, e.Fingerprint([]float64{0, 1}), e.Fingerprint([]float64{negZero, 1}))
}

func TestFingerprint_NonFinite(t *testing.T) {
	e := mustEngine(t, DefaultPrecision)

	nan1 := e.Fingerprint([]float64{math.NaN(), 1})
	nan2 := e.Fingerprint([]float64{math.Float64frombits(0x7ff8000000000001), 1})
	assert.Equal(t, nan1, nan2, "all NaN payloads share one token")

	inf := e.Fingerprint([]float64{math.Inf(1), 1})
	assert.NotEqual(t, nan1, inf)
	assert.NotEqual(t, inf, e.Fingerprint([]float64{math.Inf(-1), 1}))
	assert.NotEqual(t, inf, e.Fingerprint([]float64{math.MaxFloat64, 1}))
}

func TestFingerprint_DimensionPrefix(t *testing.T) {
	e := mustEngine(t, DefaultPrecision)

	got := string(e.AppendCanonical(nil, []float64{1, 0}))
	assert.Equal(t, "dim=2;1.0000000000000000e+00,0", got)

	assert.NotEqual(t, e.Fingerprint([]float64{1}), e.Fingerprint([]float64{1, 0}))
	assert.Equal(t, "dim=0;", string(e.AppendCanonical(nil, nil)))
}

func BenchmarkFingerprint(b *testing.B) {
	e, err := NewEngine(DefaultPrecision)
	require.NoError(b, err)
	v := make([]float64, 768)
	for i := range v {
		v[i] = float64(i) * 0.001
	}
	b.ReportAllocs()
	for b.Loop() {
		_ = e.Fingerprint(v)
	}
}
