// Package currency parses heterogeneous bank-statement amount text into
// canonical signed floats. It understands both Brazilian ("1.234,56") and
// US ("1,234.56") separator conventions plus accounting-style parenthesized
// negatives.
package currency

import (
	"math"
	"strconv"
	"strings"
)

// Normalize converts a raw CSV cell into a signed float amount.
// Numeric inputs pass through unchanged, strings are cleaned, nil and empty
// strings normalize to 0, and anything unparseable yields NaN. Callers are
// responsible for rejecting non-finite results.
func Normalize(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		return NormalizeString(val)
	default:
		return math.NaN()
	}
}

// NormalizeString cleans an amount string into a signed float.
func NormalizeString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	// An explicit Real marker forces the Brazilian separator convention
	// even for values like "R$ 1.200" that would otherwise look US-formatted.
	hasBRL := strings.Contains(s, "R$") || strings.Contains(s, "BRL")

	// Accounting notation: "(150.00)" means -150.00.
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	if negative {
		s = strings.Trim(s, "()")
	}

	s = stripCurrencyMarkers(s)

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	if hasBRL || lastComma > lastDot {
		// Brazilian/European: dot is the thousands separator, comma decimal.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		// US: comma is the thousands separator.
		s = strings.ReplaceAll(s, ",", "")
	}

	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}

	if negative {
		return -parsed
	}
	return parsed
}

// stripCurrencyMarkers removes currency symbols, letters and whitespace,
// keeping digits, separators and an explicit sign.
func stripCurrencyMarkers(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ',' || r == '.' || r == '-' || r == '+':
			b.WriteRune(r)
		}
	}
	return b.String()
}
