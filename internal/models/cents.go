package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is a monetary value with integer-cents precision. All receipt
// amounts are kept in this form so that formatting and re-parsing a value
// always round-trips exactly.
type Cents int64

// CentsFromFloat rounds a peso value to the nearest cent.
func CentsFromFloat(v float64) Cents {
	return Cents(math.Round(v * 100))
}

// CentsFromParts builds a value from an integer part (possibly containing
// thousands separators) and a two-digit fraction part.
func CentsFromParts(intPart, fracPart string) (Cents, error) {
	intPart = strings.ReplaceAll(intPart, ",", "")
	if intPart == "" {
		intPart = "0"
	}
	if fracPart == "" {
		fracPart = "00"
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, err
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, err
	}
	return Cents(whole*100 + frac), nil
}

// ParseCents parses a fixed-point string like "234.48" back into cents.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	intPart, fracPart, found := strings.Cut(s, ".")
	if !found {
		fracPart = "00"
	}
	if len(fracPart) != 2 {
		return 0, fmt.Errorf("expected exactly 2 fraction digits in %q", s)
	}
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")
	c, err := CentsFromParts(intPart, fracPart)
	if err != nil {
		return 0, err
	}
	if neg {
		c = -c
	}
	return c, nil
}

// Float64 returns the value in pesos.
func (c Cents) Float64() float64 {
	return float64(c) / 100
}

// MarshalJSON renders the value as a plain JSON number with two fraction
// digits, so clients see pesos rather than cents.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts any JSON number and rounds it to cents.
func (c *Cents) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid monetary value %s", data)
	}
	*c = CentsFromFloat(v)
	return nil
}

// String renders the value with exactly two fraction digits.
func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
