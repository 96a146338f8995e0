// Package money parses and formats localized currency amounts.
package money

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned when the input holds no parseable number.
// Callers treat it as "entity not found", not as a hard failure.
var ErrNotNumeric = errors.New("money: not a number")

// currencySuffixRe matches a trailing currency token: an alphabetic code
// ("usd", "RUB") or a symbol, optionally preceded by whitespace.
var currencySuffixRe = regexp.MustCompile(`[\s\x{00a0}\x{202f}]*[\p{L}€$£₽¥]+$`)

// groupingReplacer strips the separators banks use to group thousands:
// regular spaces, no-break spaces and narrow no-break spaces.
var groupingReplacer = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")

// ParseAmount converts a localized numeric literal to its magnitude.
// Grouping separators (spaces, no-break spaces, commas-as-thousands) are
// stripped, the decimal separator is normalized to ".", and any trailing
// currency token is discarded. "1 234,50", "1,234.50" and "1234.5" all
// yield 1234.5.
func ParseAmount(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, ErrNotNumeric
	}

	s = currencySuffixRe.ReplaceAllString(s, "")
	s = groupingReplacer.Replace(s)
	s = normalizeSeparators(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	return f, nil
}

// normalizeSeparators rewrites comma/dot usage to a single "." decimal point.
func normalizeSeparators(s string) string {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		// Both present: the separator that appears last is the decimal point,
		// the other kind groups thousands.
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case commas == 1:
		// A lone comma followed by exactly three digits reads as a thousands
		// separator ("1,234"); anything else is the decimal point ("1,50").
		if i := strings.Index(s, ","); len(s)-i-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	return s
}
