// Package money converts between major-unit decimal strings and the minor-unit
// integers stored on bookings and properties.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var hundred = decimal.NewFromInt(100)

var ErrOutOfRange = errors.New("amount out of range")

// ParseMajor parses "5000", "5000.50", "5000,50" or "1,000" into minor
// units. A lone comma is a decimal comma only when one or two digits
// follow it; otherwise commas group thousands.
func ParseMajor(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	if decimalComma(clean) {
		clean = strings.Replace(clean, ",", ".", 1)
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}

	minor := d.Mul(hundred).Round(0)
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("parsing amount %q: %w", s, ErrOutOfRange)
	}

	return minor.IntPart(), nil
}

func decimalComma(s string) bool {
	if strings.Count(s, ",") != 1 || strings.Contains(s, ".") {
		return false
	}

	frac := len(s) - strings.Index(s, ",") - 1

	return frac == 1 || frac == 2
}

// Major returns minor as a decimal in major units.
func Major(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// FormatMinor renders minor as a plain "5000.00".
func FormatMinor(minor int64) string {
	return Major(minor).StringFixed(2)
}

// Format renders minor with the currency symbol. Unknown codes fall back
// to "5000.00 XYZ".
func Format(minor int64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return FormatMinor(minor) + " " + code
	}

	amount, _ := Major(minor).Float64()
	p := message.NewPrinter(language.English)

	return p.Sprint(currency.Symbol(unit.Amount(amount)))
}
