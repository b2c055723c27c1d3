package corpcode

import (
	"path/filepath"
	"testing"
)

func testCompanies() []Company {
	return []Company{
		{CorpCode: "00126380", CorpName: "삼성전자(주)", CorpEngName: "SAMSUNG ELECTRONICS CO,.LTD", StockCode: "005930"},
		{CorpCode: "00258801", CorpName: "삼성전자서비스", CorpEngName: "SAMSUNG ELECTRONICS SERVICE", StockCode: ""},
		{CorpCode: "00164742", CorpName: "현대자동차(주)", CorpEngName: "HYUNDAI MOTOR COMPANY", StockCode: "005380"},
		{CorpCode: "00356370", CorpName: "LG에너지솔루션", CorpEngName: "LG Energy Solution, Ltd.", StockCode: "373220"},
	}
}

func TestSearchByName(t *testing.T) {
	s := NewSearcher(testCompanies())

	tests := []struct {
		query string
		limit int
		want  int
	}{
		{"삼성전자", 0, 2},
		{"삼성전자", 1, 1},
		{"samsung", 0, 2},
		{"HYUNDAI", 0, 1},
		{"없는회사", 0, 0},
		{"  ", 0, 0},
	}
	for _, tt := range tests {
		got := s.SearchByName(tt.query, tt.limit)
		if len(got) != tt.want {
			t.Errorf("SearchByName(%q, %d) returned %d results, want %d", tt.query, tt.limit, len(got), tt.want)
		}
	}
}

func TestSearchExact(t *testing.T) {
	s := NewSearcher(testCompanies())

	c, ok := s.SearchExact("삼성전자(주)")
	if !ok || c.CorpCode != "00126380" {
		t.Errorf("SearchExact = %+v, %v", c, ok)
	}
	if _, ok := s.SearchExact("삼성전자"); ok {
		t.Error("partial name should not match exactly")
	}
}

func TestByCorpCode(t *testing.T) {
	s := NewSearcher(testCompanies())

	c, ok := s.ByCorpCode("00164742")
	if !ok || c.CorpName != "현대자동차(주)" {
		t.Errorf("ByCorpCode = %+v, %v", c, ok)
	}
	if _, ok := s.ByCorpCode("99999999"); ok {
		t.Error("unknown code should miss")
	}
}

func TestSearchListed(t *testing.T) {
	s := NewSearcher(testCompanies())

	// Empty query enumerates every listed company.
	all := s.SearchListed("", 0)
	if len(all) != 3 {
		t.Errorf("listed count = %d, want 3", len(all))
	}

	// The unlisted service subsidiary never appears.
	got := s.SearchListed("삼성전자", 0)
	if len(got) != 1 || got[0].CorpCode != "00126380" {
		t.Errorf("SearchListed(삼성전자) = %+v", got)
	}
}

func TestSearchMergedDedup(t *testing.T) {
	s := NewSearcher(testCompanies())

	got := s.SearchMerged("삼성전자", 10)
	if len(got) != 2 {
		t.Fatalf("merged results = %+v, want 2", got)
	}
	// Listed match comes first, the unlisted one follows, no duplicates.
	if got[0].CorpCode != "00126380" || got[1].CorpCode != "00258801" {
		t.Errorf("merged order = %q, %q", got[0].CorpCode, got[1].CorpCode)
	}
}

func TestLoadSearcherSampleFallback(t *testing.T) {
	dir := t.TempDir()
	samplePath := filepath.Join(dir, "corp_codes_sample.json")
	if err := WriteIndex(samplePath, testCompanies(), "sample"); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSearcher(filepath.Join(dir, "corp_codes.json"), samplePath)
	if err != nil {
		t.Fatalf("LoadSearcher: %v", err)
	}
	if s.Len() != 4 {
		t.Errorf("Len = %d, want 4", s.Len())
	}
}

func TestLoadSearcherNoFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadSearcher(filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json"))
	if err == nil {
		t.Error("expected error when neither index exists")
	}
}
