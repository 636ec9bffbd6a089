package journal

import (
	"github.com/shopspring/decimal"
)

// FormatR renders a risk multiple with an explicit sign and two decimals,
// e.g. "+2.50R" or "-1.00R".
func FormatR(v float64) string {
	return FormatRPrecision(v, 2)
}

// FormatRPrecision is FormatR with a caller-chosen number of decimals.
// The sign is taken from the rounded value, so -0.001 renders as "+0.00R".
func FormatRPrecision(v float64, places int32) string {
	d := decimal.NewFromFloat(v).Round(places)
	sign := ""
	if !d.IsNegative() {
		sign = "+"
	}
	return sign + d.StringFixed(places) + "R"
}

// FormatResult renders a single trade result the way the trade list shows
// it: no padding, "+" only for strictly positive values ("+2R", "-0.5R", "0R").
func FormatResult(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.IsPositive() {
		return "+" + d.String() + "R"
	}
	return d.String() + "R"
}

// round2 rounds half away from zero to two decimals.
func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
