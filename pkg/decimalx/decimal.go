// Package decimalx provides a single fixed-precision decimal newtype used
// for stored and boundary monetary and ratio fields. The indicators and the
// scoring engine convert these values to float64 (Float64) and compute in
// float64. This wrapper is the only place that touches
// github.com/shopspring/decimal directly.
package decimalx

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the minimum fractional precision carried through arithmetic,
// chosen to give headroom for IDX price magnitudes up to 1e9 with at
// least 18 integer and 8 fractional decimal digits of headroom.
const Scale = 8

// Decimal wraps shopspring/decimal.Decimal as the one decimal type of this
// module. Values leave it through Float64 where indicators and scoring
// compute in float64.
type Decimal struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Decimal{d: decimal.Zero}

// New builds a Decimal from an integer coefficient and exponent, mirroring
// decimal.New for constructing exact constants in code.
func New(value int64, exp int32) Decimal {
	return Decimal{d: decimal.New(value, exp)}
}

// NewFromFloat builds a Decimal from a float64. Reserved for boundary
// conversions (e.g. talib/gonum results); never use this to carry a value
// through repeated arithmetic — convert once, at the edge.
func NewFromFloat(f float64) Decimal {
	return Decimal{d: decimal.NewFromFloat(f)}
}

// NewFromInt builds a Decimal from an int64.
func NewFromInt(i int64) Decimal {
	return Decimal{d: decimal.NewFromInt(i)}
}

// Parse parses a decimal literal string.
func Parse(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimalx: parse %q: %w", s, err)
	}
	return Decimal{d: d}, nil
}

// Float64 converts to float64, for boundary calls into talib/gonum and for
// display formatting. Never round-trip a computed Decimal through this and
// back — compute in Decimal, convert once at the boundary.
func (d Decimal) Float64() float64 {
	f, _ := d.d.Float64()
	return f
}

// String renders the decimal at full precision.
func (d Decimal) String() string {
	return d.d.String()
}

// StringFixed renders the decimal rounded to places fractional digits.
func (d Decimal) StringFixed(places int32) string {
	return d.d.StringFixed(places)
}

// Add returns d + other.
func (d Decimal) Add(other Decimal) Decimal {
	return Decimal{d: d.d.Add(other.d)}
}

// Sub returns d - other.
func (d Decimal) Sub(other Decimal) Decimal {
	return Decimal{d: d.d.Sub(other.d)}
}

// Mul returns d * other.
func (d Decimal) Mul(other Decimal) Decimal {
	return Decimal{d: d.d.Mul(other.d)}
}

// Div returns (d / other, true), or (Zero, false) when other is zero.
// Division by zero is never a sentinel value — callers must check ok.
func (d Decimal) Div(other Decimal) (Decimal, bool) {
	if other.d.IsZero() {
		return Zero, false
	}
	return Decimal{d: d.d.DivRound(other.d, Scale)}, true
}

// Neg returns -d.
func (d Decimal) Neg() Decimal {
	return Decimal{d: d.d.Neg()}
}

// Abs returns |d|.
func (d Decimal) Abs() Decimal {
	return Decimal{d: d.d.Abs()}
}

// Cmp compares d to other: -1, 0, or 1.
func (d Decimal) Cmp(other Decimal) int {
	return d.d.Cmp(other.d)
}

// Equal reports whether d and other represent the same numeric value.
func (d Decimal) Equal(other Decimal) bool {
	return d.d.Equal(other.d)
}

// GreaterThan reports whether d > other.
func (d Decimal) GreaterThan(other Decimal) bool { return d.d.GreaterThan(other.d) }

// LessThan reports whether d < other.
func (d Decimal) LessThan(other Decimal) bool { return d.d.LessThan(other.d) }

// GreaterThanOrEqual reports whether d >= other.
func (d Decimal) GreaterThanOrEqual(other Decimal) bool { return d.d.GreaterThanOrEqual(other.d) }

// LessThanOrEqual reports whether d <= other.
func (d Decimal) LessThanOrEqual(other Decimal) bool { return d.d.LessThanOrEqual(other.d) }

// IsZero reports whether d is exactly zero.
func (d Decimal) IsZero() bool { return d.d.IsZero() }

// IsNegative reports whether d < 0.
func (d Decimal) IsNegative() bool { return d.d.IsNegative() }

// IsPositive reports whether d > 0.
func (d Decimal) IsPositive() bool { return d.d.IsPositive() }

// Clamp bounds d to the closed interval [lo, hi].
func Clamp(d, lo, hi Decimal) Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// Min returns the smaller of a and b.
func Min(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Decimal) Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Sum adds a slice of Decimals.
func Sum(values []Decimal) Decimal {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Mean returns (Sum(values)/len(values), true), or (Zero, false) if empty.
func Mean(values []Decimal) (Decimal, bool) {
	if len(values) == 0 {
		return Zero, false
	}
	return Sum(values).Div(NewFromInt(int64(len(values))))
}

// Value implements driver.Valuer so Decimal can be written directly by
// database/sql (stored as its decimal string form).
func (d Decimal) Value() (driver.Value, error) {
	return d.d.String(), nil
}

// Scan implements sql.Scanner so Decimal can be read directly from rows.
func (d *Decimal) Scan(value interface{}) error {
	if value == nil {
		d.d = decimal.Zero
		return nil
	}
	switch v := value.(type) {
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("decimalx: scan string %q: %w", v, err)
		}
		d.d = parsed
	case []byte:
		parsed, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("decimalx: scan bytes %q: %w", v, err)
		}
		d.d = parsed
	case float64:
		d.d = decimal.NewFromFloat(v)
	case int64:
		d.d = decimal.NewFromInt(v)
	default:
		return fmt.Errorf("decimalx: unsupported scan type %T", value)
	}
	return nil
}

// MarshalJSON renders the decimal as a bare numeric literal rather than a
// quoted string, matching how breakdown JSON documents expect plain
// numbers.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.d.String()), nil
}

// UnmarshalJSON parses a JSON numeric literal into the decimal.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	return d.d.UnmarshalJSON(data)
}
