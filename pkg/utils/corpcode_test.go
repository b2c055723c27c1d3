package utils

import "testing"

func TestIsCorpCode(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"00126380", true}, // Samsung Electronics
		{"00164742", true},
		{"0012638", false},  // too short
		{"001263800", false}, // too long
		{"0012638a", false},
		{"", false},
		{"삼성전자88", false},
	}

	for _, tt := range tests {
		if got := IsCorpCode(tt.input); got != tt.want {
			t.Errorf("IsCorpCode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsStockCode(t *testing.T) {
	if !IsStockCode("005930") {
		t.Error("005930 should be a valid stock code")
	}
	if IsStockCode("5930") || IsStockCode("00593a") {
		t.Error("malformed stock codes accepted")
	}
}

func TestIsYYYYMMDD(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"20230101", true},
		{"20231231", true},
		{"20231301", false}, // month 13
		{"2023-01-01", false},
		{"202301", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsYYYYMMDD(tt.input); got != tt.want {
			t.Errorf("IsYYYYMMDD(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"258,940,000,000,000", 258940000000000},
		{"1234", 1234},
		{"-1,234", -1234},
		{"", 0},
		{"-", 0},
		{" 1,000 ", 1000},
		{"abc", 0},
		{"1,2x4", 0},
	}

	for _, tt := range tests {
		if got := ParseAmount(tt.input); got != tt.want {
			t.Errorf("ParseAmount(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
