package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders an amount for humans: two decimal places, space-grouped
// thousands, and the ISO-like currency code appended ("12 345.68 EUR").
// It never fails; with an empty code it falls back to the bare number.
func Format(amount float64, code string) string {
	fixed := decimal.NewFromFloat(amount).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	out := sign + groupThousands(intPart) + "." + fracPart

	if code = strings.TrimSpace(code); code != "" {
		out += " " + strings.ToUpper(code)
	}
	return out
}

// groupThousands inserts a space between every group of three digits.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
