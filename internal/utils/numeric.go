// Package utils provides small shared helpers for parsing and formatting
// vendor data. The vendor API returns every numeric field as a string, with
// inconsistent placeholder values ("-", empty, "+"-prefixed), so all conversion
// policy lives here instead of being scattered across the clients.
package utils

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseOptionalFloat converts a string-typed vendor numeric into a *float64.
// The placeholder tokens "-" and "" mean "no data" and map to nil, as does any
// token that fails to parse. A leading "+" sign is accepted.
func ParseOptionalFloat(s string) *float64 {
	s = normalizeNumeric(s)
	if s == "" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseMandatoryFloat converts a string-typed vendor numeric into a float64,
// defaulting to 0 when the token is a placeholder or unparsable. Used for fields
// the vendor always populates (e.g. face value) where 0 is a safe default.
func ParseMandatoryFloat(s string) float64 {
	if v := ParseOptionalFloat(s); v != nil {
		return *v
	}
	return 0
}

// normalizeNumeric strips whitespace, thousands separators and an explicit
// leading plus sign from a vendor numeric token.
func normalizeNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "+")
	return s
}

// FormatSignedPercent renders a percentage to two decimals with an explicit
// "+" sign for non-negative values, e.g. "+20.00%" or "-3.25%".
func FormatSignedPercent(pct decimal.Decimal) string {
	if pct.IsNegative() {
		return pct.StringFixed(2) + "%"
	}
	return "+" + pct.StringFixed(2) + "%"
}
