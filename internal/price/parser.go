// Package price turns storefront price text into numbers.
package price

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Format is the separator convention of a storefront
type Format int

const (
	// CommaDecimal is "1.234,56": dot groups thousands, comma marks decimals.
	CommaDecimal Format = iota
	// DotDecimal is "1,234.56".
	DotDecimal
)

// ParseError is returned when the text does not reduce to a number
type ParseError struct {
	Raw     string
	Residue string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("price: cannot parse %q (residue %q)", e.Raw, e.Residue)
}

var currencyStripper = strings.NewReplacer(
	"TL", "",
	"TRY", "",
	"₺", "",
	"EUR", "",
	"€", "",
	"USD", "",
	"$", "",
	"\u00a0", "",
	"\u202f", "",
	" ", "",
	"\t", "",
	"\n", "",
)

// Parse converts price text such as "1.234,56 TL" into 1234.56.
func Parse(text string, f Format) (float64, error) {
	s := currencyStripper.Replace(strings.TrimSpace(text))

	switch f {
	case CommaDecimal:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	// decimal accepts exponents; price text never carries one
	if s == "" || strings.ContainsAny(s, "eE") {
		return 0, &ParseError{Raw: text, Residue: s}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ParseError{Raw: text, Residue: s}
	}
	v, _ := d.Float64()
	return v, nil
}

// DiscountPercent is (old-current)/old*100 rounded to two decimals.
// It returns 0 when old is not positive.
func DiscountPercent(old, current float64) float64 {
	if old <= 0 {
		return 0
	}
	o := decimal.NewFromFloat(old)
	pct := o.Sub(decimal.NewFromFloat(current)).Div(o).Mul(decimal.NewFromInt(100)).Round(2)
	v, _ := pct.Float64()
	return v
}

// Format2 renders a value with two decimals for messages.
func Format2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
