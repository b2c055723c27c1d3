// Package utils provides common utility functions for DARTView.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatKRW formats a number in Korean Won with thousands separators (₩1,234,567).
func FormatKRW(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	formatted := groupThousands(int64(amount))

	if negative {
		return "-₩" + formatted
	}
	return "₩" + formatted
}

// FormatKRWCompact formats a number in compact Korean notation using the
// traditional 만 (1e4), 억 (1e8) and 조 (1e12) units.
// e.g., 258_940_000_000_000 → "258.94조원", 193_500_000_000 → "1,935억원"
func FormatKRWCompact(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	sign := ""
	if negative {
		sign = "-"
	}

	switch {
	case amount >= 1e12:
		return fmt.Sprintf("%s%s조원", sign, formatWithDecimals(amount/1e12))
	case amount >= 1e8:
		return fmt.Sprintf("%s%s억원", sign, formatWithDecimals(amount/1e8))
	case amount >= 1e4:
		return fmt.Sprintf("%s%s만원", sign, formatWithDecimals(amount/1e4))
	default:
		return fmt.Sprintf("%s%.0f원", sign, amount)
	}
}

// ToTrillions converts a raw won amount to 조원.
func ToTrillions(amount float64) float64 {
	return amount / 1e12
}

// ToHundredMillions converts a raw won amount to 억원.
func ToHundredMillions(amount float64) float64 {
	return amount / 1e8
}

// FormatPercent formats a ratio value with one decimal and a sign for changes.
func FormatPercent(value float64, signed bool) string {
	if signed {
		return fmt.Sprintf("%+.1f%%", value)
	}
	return fmt.Sprintf("%.1f%%", value)
}

// formatWithDecimals renders a unit-scaled value with grouped integer part
// and up to two decimals, trimming a trailing ".00". Rounding happens before
// the split so a fraction like .999 carries into the integer part.
func formatWithDecimals(v float64) string {
	v = math.Round(v*100) / 100
	intPart := int64(v)
	dec := v - float64(intPart)

	s := groupThousands(intPart)
	if dec >= 0.005 {
		s += fmt.Sprintf("%.2f", dec)[1:]
		s = strings.TrimSuffix(s, "0")
	}
	return s
}

// groupThousands inserts comma separators every three digits.
func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
