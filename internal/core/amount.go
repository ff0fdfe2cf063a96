// Package core provides the domain records consumed by the insight engine
// and the lenient amount/date parsing they rely on.
//
// Records arrive from callers that cannot be trusted to send well-formed
// numbers or dates, so decoding coerces rather than rejects: a malformed
// amount becomes zero and a malformed date is excluded from any
// date-windowed computation.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative monetary magnitude. The transaction type (or the
// record kind) carries the sign, never the amount itself.
type Amount struct {
	decimal.Decimal
}

// NewAmount builds an Amount from a float, clamping the sign away.
func NewAmount(f float64) Amount {
	return Amount{decimal.NewFromFloat(f).Abs()}
}

// ParseAmount converts a decimal string to an Amount. Malformed or empty
// input coerces to zero; negative input is treated as its magnitude.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{decimal.Zero}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{decimal.Zero}
	}
	return Amount{d.Abs()}
}

// UnmarshalJSON accepts a JSON number or a numeric string. Anything else
// (null, objects, garbage) coerces to zero instead of failing the decode.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = d.Abs()
	return nil
}

// MarshalJSON emits the amount as a plain JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.Decimal.IsZero()
}
