package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dartlab/dartview/internal/config"
	"github.com/dartlab/dartview/pkg/models"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGemini("test-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	return g
}

const generateOK = `{"candidates":[{"content":{"parts":[{"text":"분석 결과입니다.\n"}]}}]}`

func TestGenerateSuccess(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		w.Write([]byte(generateOK))
	})

	text, err := g.Generate(context.Background(), "안녕")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "분석 결과입니다." {
		t.Errorf("text = %q", text)
	}
}

func TestGenerateQuotaExceeded(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := g.Generate(context.Background(), "안녕")
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestGenerateBadKey(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	})

	_, err := g.Generate(context.Background(), "안녕")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	if _, err := NewGemini(""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func item(name, sjDiv string, current, previous int64) models.StatementItem {
	return models.StatementItem{
		AccountName:  name,
		SJDiv:        sjDiv,
		CurrentYear:  models.PeriodAmount{Amount: current},
		PreviousYear: models.PeriodAmount{Amount: previous},
	}
}

func sampleParsed() *models.ParsedStatements {
	return &models.ParsedStatements{
		Items: []models.StatementItem{
			item("매출액", "IS", 100_000_000_000_000, 95_000_000_000_000),
			item("당기순이익", "IS", 10_000_000_000_000, 8_000_000_000_000),
			item("자산총계", "BS", 400_000_000_000_000, 380_000_000_000_000),
		},
	}
}

func TestAnalyzerDisabledWithoutKey(t *testing.T) {
	for _, key := range []string{"", "  ", placeholderKey} {
		a := NewAnalyzer(config.GeminiConfig{APIKey: key}, time.Minute)
		if a.Enabled() {
			t.Errorf("analyzer with key %q should be disabled", key)
		}
		_, err := a.AnalyzeStatements(context.Background(), AnalysisRequest{
			CorpCode: "00126380", Year: 2023, Statements: sampleParsed(),
		})
		if !errors.Is(err, ErrDisabled) {
			t.Errorf("err = %v, want ErrDisabled", err)
		}
	}
}

func TestAnalyzeStatementsCachesResult(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(generateOK))
	}))
	defer srv.Close()

	a := NewAnalyzer(config.GeminiConfig{APIKey: "test-key"}, time.Minute, WithBaseURL(srv.URL))
	if !a.Enabled() {
		t.Fatal("analyzer should be enabled")
	}

	req := AnalysisRequest{
		CorpCode:    "00126380",
		CompanyName: "삼성전자(주)",
		Year:        2023,
		Statements:  sampleParsed(),
	}
	for i := 0; i < 2; i++ {
		text, err := a.AnalyzeStatements(context.Background(), req)
		if err != nil {
			t.Fatalf("AnalyzeStatements: %v", err)
		}
		if text != "분석 결과입니다." {
			t.Errorf("text = %q", text)
		}
	}
	if calls != 1 {
		t.Errorf("gemini calls = %d, want 1 (second hit served from cache)", calls)
	}
}

func TestAnalyzeStatementsEmpty(t *testing.T) {
	a := NewAnalyzer(config.GeminiConfig{APIKey: "test-key"}, time.Minute)
	if _, err := a.AnalyzeStatements(context.Background(), AnalysisRequest{CorpCode: "x"}); err == nil {
		t.Error("expected error for empty statements")
	}
}

func TestBuildSummaryRatioOrder(t *testing.T) {
	ratios := models.NewRatioSet()
	ratios.Profitability["roe"] = models.RatioValue{Value: 13.33, Name: "ROE (자기자본이익률)", Unit: "%"}
	ratios.Profitability["roa"] = models.RatioValue{Value: 8.0, Name: "ROA (총자산이익률)", Unit: "%"}
	ratios.Profitability["net_margin"] = models.RatioValue{Value: 10.0, Name: "순이익률", Unit: "%"}

	summary := buildSummary("삼성전자(주)", sampleParsed(), &ratios)

	// Key-sorted rendering: net_margin < roa < roe.
	iMargin := strings.Index(summary, "순이익률")
	iROA := strings.Index(summary, "ROA")
	iROE := strings.Index(summary, "ROE")
	if iMargin < 0 || iROA < 0 || iROE < 0 {
		t.Fatalf("ratio lines missing:\n%s", summary)
	}
	if !(iMargin < iROA && iROA < iROE) {
		t.Errorf("ratio lines out of order (%d, %d, %d):\n%s", iMargin, iROA, iROE, summary)
	}
}

func currentParsed() *models.ParsedStatements {
	return &models.ParsedStatements{
		Items: []models.StatementItem{
			item("매출액", "IS", 105_000_000_000_000, 0),
			item("당기순이익", "IS", 8_000_000_000_000, 0),
			item("자산총계", "BS", 400_000_000_000_000, 0),
		},
	}
}

func previousParsed() *models.ParsedStatements {
	return &models.ParsedStatements{
		Items: []models.StatementItem{
			item("매출액", "IS", 100_000_000_000_000, 0),
			item("당기순이익", "IS", 10_000_000_000_000, 0),
			item("자산총계", "BS", 380_000_000_000_000, 0),
		},
	}
}

func TestBuildComparisonSummary(t *testing.T) {
	summary := buildComparisonSummary("삼성전자(주)", 2023, currentParsed(), previousParsed())

	for _, want := range []string{
		"삼성전자(주) 당기 vs 전기 비교 분석",
		"매출액: 105조원 (2022년 대비 5.0% 증가)",
		"당기순이익: 8조원 (2022년 대비 20.0% 감소)",
		"자산총계: 400조원 (2022년 대비 5.3% 증가)",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	// Accounts present in neither year stay out of the prompt.
	if strings.Contains(summary, "영업이익") {
		t.Errorf("absent account leaked into summary:\n%s", summary)
	}
}

func TestAnalyzeComparisonCachesResult(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(generateOK))
	}))
	defer srv.Close()

	a := NewAnalyzer(config.GeminiConfig{APIKey: "test-key"}, time.Minute, WithBaseURL(srv.URL))
	req := ComparisonRequest{
		CorpCode:    "00126380",
		CompanyName: "삼성전자(주)",
		Year:        2023,
		Current:     currentParsed(),
		Previous:    previousParsed(),
	}
	for i := 0; i < 2; i++ {
		text, err := a.AnalyzeComparison(context.Background(), req)
		if err != nil {
			t.Fatalf("AnalyzeComparison: %v", err)
		}
		if text != "분석 결과입니다." {
			t.Errorf("text = %q", text)
		}
	}
	if calls != 1 {
		t.Errorf("gemini calls = %d, want 1 (second hit served from cache)", calls)
	}
}

func TestAnalyzeComparisonRequiresBothYears(t *testing.T) {
	a := NewAnalyzer(config.GeminiConfig{APIKey: "test-key"}, time.Minute)
	_, err := a.AnalyzeComparison(context.Background(), ComparisonRequest{
		CorpCode: "00126380",
		Year:     2023,
		Current:  currentParsed(),
	})
	if err == nil {
		t.Error("expected error when the previous year is missing")
	}

	_, err = NewAnalyzer(config.GeminiConfig{}, time.Minute).
		AnalyzeComparison(context.Background(), ComparisonRequest{})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func TestBuildSummary(t *testing.T) {
	ratios := models.NewRatioSet()
	ratios.Profitability["roe"] = models.RatioValue{Value: 13.33, Name: "ROE (자기자본이익률)", Unit: "%"}

	summary := buildSummary("삼성전자(주)", sampleParsed(), &ratios)

	for _, want := range []string{
		"삼성전자(주) 재무제표 분석",
		"손익계산서 주요 항목",
		"매출액",
		"재무상태표 주요 항목",
		"자산총계",
		"주요 재무비율",
		"ROE (자기자본이익률): 13.33%",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}
