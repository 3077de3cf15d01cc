// Package money provides fixed-point monetary amounts with a scale of two
// decimal places. Amounts are stored as int64 paise so balance arithmetic
// never touches floating point.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a monetary value in paise (hundredths of a rupee).
type Amount int64

var (
	ErrMalformedAmount = errors.New("malformed amount")
	ErrTooPrecise      = errors.New("amount has more than two decimal places")
)

// FromRupees builds an Amount from a whole number of rupees.
func FromRupees(r int64) Amount {
	return Amount(r * 100)
}

// FromFloat converts a float to an Amount, rounding half to even.
// Only for boundary conversions; internal arithmetic stays in Amount.
func FromFloat(f float64) Amount {
	return Amount(int64(math.RoundToEven(f * 100)))
}

// Parse reads a decimal string such as "1500" or "1500.25". At most two
// decimal places are accepted; anything finer is rejected rather than
// silently rounded.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMalformedAmount
	}

	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, ErrMalformedAmount
	}
	// ParseInt alone would accept a second sign inside either component, so
	// both must be digit-only before conversion.
	if !isDigits(whole) || !isDigits(frac) {
		return 0, ErrMalformedAmount
	}
	if len(frac) > 2 {
		return 0, ErrTooPrecise
	}

	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrMalformedAmount
	}

	var f int64
	if frac != "" {
		f, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, ErrMalformedAmount
		}
		if len(frac) == 1 {
			f *= 10
		}
	}

	a := Amount(w*100 + f)
	if neg {
		a = -a
	}
	return a, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MustParse is Parse for constants in tests and seed data.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("money: %q: %v", s, err))
	}
	return a
}

// Paise returns the raw minor-unit value.
func (a Amount) Paise() int64 { return int64(a) }

// Float returns the amount as a float64 for display-layer serialization.
func (a Amount) Float() float64 { return float64(a) / 100 }

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// MarshalJSON renders the amount as a decimal string so API clients never
// see raw paise.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

// UnmarshalJSON accepts a decimal string with at most two decimal places.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return ErrMalformedAmount
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// String formats the amount with exactly two decimal places.
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
