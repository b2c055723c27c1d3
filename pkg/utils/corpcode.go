package utils

import "strings"

// IsCorpCode reports whether s is a valid DART corp code: exactly 8 ASCII digits.
func IsCorpCode(s string) bool {
	if len(s) != 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsStockCode reports whether s is a valid KRX stock code: exactly 6 ASCII digits.
func IsStockCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsYYYYMMDD reports whether s looks like a DART date parameter (YYYYMMDD).
// Only the shape is checked; the API rejects impossible dates itself.
func IsYYYYMMDD(s string) bool {
	if len(s) != 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	mm := s[4:6]
	return mm >= "01" && mm <= "12"
}

// ParseAmount converts a DART amount string ("258,940,000,000,000", "-1,234")
// to an int64. Malformed or empty strings yield 0, matching how the raw
// statements treat blank cells.
func ParseAmount(s string) int64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return 0
	}
	negative := false
	if s[0] == '-' {
		negative = true
		s = s[1:]
	}
	var n int64
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0
		}
		n = n*10 + int64(s[i]-'0')
	}
	if negative {
		return -n
	}
	return n
}
