package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"sync"
)

const (
	// DefaultPrecision is the number of significant digits kept by default.
	DefaultPrecision = 17
	// MaxPrecision is the largest useful precision: 17 digits already tell
	// every float64 apart.
	MaxPrecision = 17
)

// ErrInvalidPrecision is returned for a precision outside [1, MaxPrecision].
var ErrInvalidPrecision = errors.New("fingerprint: precision out of range")

// Size is the fingerprint length in bytes.
const Size = sha256.Size

// Fingerprint is an opaque exact-match key.
type Fingerprint [Size]byte

// String returns the hex encoding.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Engine computes fingerprints at a fixed precision. It is safe for concurrent use.
type Engine struct {
	precision int
	pool      sync.Pool
}

// NewEngine creates an Engine keeping precision significant digits.
func NewEngine(precision int) (*Engine, error) {
	if precision < 1 || precision > MaxPrecision {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPrecision, precision)
	}
	e := &Engine{precision: precision}
	e.pool.New = func() any {
		b := make([]byte, 0, 1024)
		return &b
	}
	return e, nil
}

// Precision returns the configured number of significant digits.
func (e *Engine) Precision() int {
	return e.precision
}

// Fingerprint returns the key of vec.
func (e *Engine) Fingerprint(vec []float64) Fingerprint {
	bp := e.pool.Get().(*[]byte)
	buf := e.AppendCanonical((*bp)[:0], vec)
	sum := sha256.Sum256(buf)
	*bp = buf
	e.pool.Put(bp)
	return sum
}

// AppendCanonical appends the hashed serialization of vec to dst:
// "dim=<D>;" followed by the comma separated component tokens.
func (e *Engine) AppendCanonical(dst []byte, vec []float64) []byte {
	dst = append(dst, "dim="...)
	dst = strconv.AppendInt(dst, int64(len(vec)), 10)
	dst = append(dst, ';')
	for i, x := range vec {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendComponent(dst, x, e.precision)
	}
	return dst
}

// Canonical returns the token x serializes to at the given precision.
// precision is clamped to [1, MaxPrecision].
func Canonical(x float64, precision int) string {
	precision = min(max(precision, 1), MaxPrecision)
	return string(appendComponent(nil, x, precision))
}

func appendComponent(dst []byte, x float64, precision int) []byte {
	switch {
	case math.IsNaN(x):
		return append(dst, "nan"...)
	case math.IsInf(x, 1):
		return append(dst, "+inf"...)
	case math.IsInf(x, -1):
		return append(dst, "-inf"...)
	case x == 0:
		return append(dst, '0')
	}

	if x < 0 {
		dst = append(dst, '-')
		x = -x
	}

	// strconv rounds correctly but breaks exact ties to even. A tie at
	// precision digits shows up as an exact (precision+1)-digit expansion
	// ending in 5; only then do we round away from zero by hand.
	var scratch [40]byte
	wide := strconv.AppendFloat(scratch[:0], x, 'e', precision, 64)
	if isTie(wide, x) {
		return appendRoundedUp(dst, wide, precision)
	}
	return strconv.AppendFloat(dst, x, 'e', precision-1, 64)
}

// isTie reports whether wide ("d.ddd5e±xx") is the exact value of x and ends in 5.
func isTie(wide []byte, x float64) bool {
	e := mantissaEnd(wide)
	if wide[e-1] != '5' {
		return false
	}
	exact := new(big.Rat).SetFloat64(x)
	if exact == nil {
		return false
	}
	dec, ok := new(big.Rat).SetString(string(wide))
	return ok && exact.Cmp(dec) == 0
}

// appendRoundedUp drops the last digit of wide and increments the rest,
// formatting the result the way strconv's 'e' verb does.
func appendRoundedUp(dst, wide []byte, precision int) []byte {
	e := mantissaEnd(wide)

	digits := make([]byte, 0, precision+1)
	for _, c := range wide[:e] {
		if c != '.' {
			digits = append(digits, c)
		}
	}
	digits = digits[:precision]

	exp, _ := strconv.Atoi(string(wide[e+1:]))

	i := len(digits) - 1
	for ; i >= 0; i-- {
		if digits[i] != '9' {
			digits[i]++
			break
		}
		digits[i] = '0'
	}
	if i < 0 {
		// 9.99..9 carried into a new leading digit.
		digits[0] = '1'
		exp++
	}

	dst = append(dst, digits[0])
	if len(digits) > 1 {
		dst = append(dst, '.')
		dst = append(dst, digits[1:]...)
	}
	dst = append(dst, 'e')
	if exp < 0 {
		dst = append(dst, '-')
		exp = -exp
	} else {
		dst = append(dst, '+')
	}
	if exp < 10 {
		dst = append(dst, '0')
	}
	return strconv.AppendInt(dst, int64(exp), 10)
}

func mantissaEnd(b []byte) int {
	for i, c := range b {
		if c == 'e' {
			return i
		}
	}
	return len(b)
}
