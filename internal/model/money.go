package model

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in cents. The backend speaks decimals; the client keeps
// exact integer arithmetic so balance debits never drift.
type Money int64

// Dollars builds Money from a float amount, rounding to the nearest cent.
func Dollars(v float64) Money { return Money(math.Round(v * 100)) }

// ParseMoney parses "12", "12.5", "12.50" or any float literal.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse money: empty")
	}
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	whole, frac, hasDot := strings.Cut(body, ".")
	if isDigits(whole) && (!hasDot || isDigits(frac)) && whole != "" {
		w, err := strconv.ParseInt(whole, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse money %q: %w", s, err)
		}
		cents := w * 100
		switch {
		case len(frac) == 1:
			cents += int64(frac[0]-'0') * 10
		case len(frac) >= 2:
			cents += int64(frac[0]-'0')*10 + int64(frac[1]-'0')
			if len(frac) > 2 && frac[2] >= '5' {
				cents++
			}
		}
		if neg {
			cents = -cents
		}
		return Money(cents), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("parse money %q: invalid", s)
	}
	return Dollars(f), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Mul multiplies by an integer quantity.
func (m Money) Mul(n int) Money { return m * Money(n) }

// String renders the amount as a plain decimal, e.g. "12.50".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Format renders the amount for display, e.g. "$12.50".
func (m Money) Format() string {
	if m < 0 {
		return "-$" + (-m).String()
	}
	return "$" + m.String()
}

// MarshalJSON emits a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalJSON accepts numbers, numeric strings and null.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = 0
		return nil
	}
	v, err := ParseMoney(string(bytes.Trim(b, `"`)))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
