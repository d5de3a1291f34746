package pricing

import "github.com/shopspring/decimal"

// Scale is the number of fractional digits carried by every monetary amount.
const Scale = 2

var zeroAmount = decimal.New(0, -Scale)

// RoundHalfUp rounds d to Scale places, halves away from zero. Amounts handled by the
// engine are never negative, so this matches half-up rounding.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Floor truncates d toward negative infinity at Scale places. The result always carries
// exactly Scale fractional digits.
func Floor(d decimal.Decimal) decimal.Decimal {
	return d.RoundFloor(Scale).Round(Scale)
}

// PlainString renders d at its own scale without exponent notation ("116.17", "0").
func PlainString(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// MinorUnits moves the decimal point right by the value's scale and renders the resulting
// integer, so 116.17 becomes "11617" and 1.250 becomes "1250". It is not a fixed ×100.
func MinorUnits(d decimal.Decimal) string {
	if d.Exponent() < 0 {
		return d.Coefficient().String()
	}
	return d.String()
}
