package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dartlab/dartview/internal/config"
	"github.com/dartlab/dartview/internal/infra"
	"github.com/dartlab/dartview/pkg/models"
	"github.com/dartlab/dartview/pkg/utils"
)

// ErrDisabled means the analyzer has no Gemini key configured.
var ErrDisabled = errors.New("ai: analyzer disabled, no Gemini API key")

// placeholder value shipped in .env templates; treated as unset.
const placeholderKey = "your_gemini_api_key_here"

// Analyzer produces plain-Korean commentary on a company's statements.
// Results are cached per corp code and year; calls to Gemini go through a
// rate limiter so a burst of web requests cannot burn the free-tier quota.
type Analyzer struct {
	llm     *Gemini
	cache   *infra.Cache
	limiter *infra.RateLimiter
}

// NewAnalyzer builds an analyzer from config. A missing or placeholder key
// yields a disabled analyzer, not an error.
func NewAnalyzer(cfg config.GeminiConfig, cacheTTL time.Duration, opts ...GeminiOption) *Analyzer {
	a := &Analyzer{
		cache:   infra.NewCache(cacheTTL),
		limiter: infra.NewRateLimiter(10, time.Minute),
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" || key == placeholderKey {
		return a
	}
	llm, err := NewGemini(key, append([]GeminiOption{WithModel(cfg.Model)}, opts...)...)
	if err != nil {
		return a
	}
	a.llm = llm
	return a
}

// Enabled reports whether a Gemini key is configured.
func (a *Analyzer) Enabled() bool { return a != nil && a.llm != nil }

// AnalysisRequest identifies one company-year to analyze.
type AnalysisRequest struct {
	CorpCode    string
	CompanyName string
	Year        int
	Statements  *models.ParsedStatements
	Ratios      *models.RatioSet
}

// AnalyzeStatements summarizes the statements, asks Gemini for commentary
// and returns the generated Korean text.
func (a *Analyzer) AnalyzeStatements(ctx context.Context, req AnalysisRequest) (string, error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}
	if req.Statements.Empty() {
		return "", errors.New("ai: no statements to analyze")
	}

	cacheKey := fmt.Sprintf("analysis:%s:%d", req.CorpCode, req.Year)
	if cached, ok := a.cache.Get(cacheKey); ok {
		return cached.(string), nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	summary := buildSummary(req.CompanyName, req.Statements, req.Ratios)
	text, err := a.llm.Generate(ctx, analysisPrompt(summary))
	if err != nil {
		return "", err
	}

	a.cache.Set(cacheKey, text)
	return text, nil
}

// ComparisonRequest identifies a current-vs-previous-year comparison.
// Year is the current business year; Previous holds the statements of
// Year-1.
type ComparisonRequest struct {
	CorpCode    string
	CompanyName string
	Year        int
	Current     *models.ParsedStatements
	Previous    *models.ParsedStatements
}

// AnalyzeComparison asks Gemini to explain how the headline accounts moved
// between two consecutive years.
func (a *Analyzer) AnalyzeComparison(ctx context.Context, req ComparisonRequest) (string, error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}
	if req.Current.Empty() || req.Previous.Empty() {
		return "", errors.New("ai: comparison needs statements for both years")
	}

	cacheKey := fmt.Sprintf("comparison:%s:%d", req.CorpCode, req.Year)
	if cached, ok := a.cache.Get(cacheKey); ok {
		return cached.(string), nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	summary := buildComparisonSummary(req.CompanyName, req.Year, req.Current, req.Previous)
	text, err := a.llm.Generate(ctx, comparisonPrompt(summary))
	if err != nil {
		return "", err
	}

	a.cache.Set(cacheKey, text)
	return text, nil
}

// comparisonAccounts are the headline lines compared year over year.
var comparisonAccounts = []struct{ name, sjDiv string }{
	{"매출액", models.SectionIncomeStatement},
	{"영업이익", models.SectionIncomeStatement},
	{"당기순이익", models.SectionIncomeStatement},
	{"자산총계", models.SectionBalanceSheet},
	{"부채총계", models.SectionBalanceSheet},
	{"자본총계", models.SectionBalanceSheet},
}

// buildComparisonSummary renders one line per headline account: the current
// amount plus the change against the prior year's statements.
func buildComparisonSummary(companyName string, year int, current, previous *models.ParsedStatements) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s 당기 vs 전기 비교 분석**\n\n", companyName)

	for _, acc := range comparisonAccounts {
		cur, okCur := findAmount(current, acc.name, acc.sjDiv)
		prev, okPrev := findAmount(previous, acc.name, acc.sjDiv)
		if !okCur && !okPrev {
			continue
		}
		growth := 0.0
		if prev > 0 {
			growth = float64(cur-prev) / float64(prev) * 100
		}
		direction := "증가"
		if growth < 0 {
			direction = "감소"
		}
		fmt.Fprintf(&b, "- %s: %s (%d년 대비 %.1f%% %s)\n",
			acc.name, utils.FormatKRWCompact(float64(cur)), year-1, math.Abs(growth), direction)
	}
	return b.String()
}

// findAmount returns the current-period amount of the first account in the
// given section whose name contains name.
func findAmount(parsed *models.ParsedStatements, name, sjDiv string) (int64, bool) {
	for _, item := range parsed.Items {
		if item.SJDiv == sjDiv && strings.Contains(item.AccountName, name) {
			return item.CurrentYear.Amount, true
		}
	}
	return 0, false
}

// buildSummary renders the statement highlights Gemini is asked about:
// headline income-statement and balance-sheet accounts with year-over-year
// change, plus up to six profitability and stability ratios.
func buildSummary(companyName string, parsed *models.ParsedStatements, ratios *models.RatioSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s 재무제표 분석**\n\n", companyName)

	writeItems := func(header string, sjDiv string, keywords []string) {
		var lines []string
		for _, item := range parsed.Items {
			if item.SJDiv != sjDiv || !containsAny(item.AccountName, keywords) {
				continue
			}
			current := item.CurrentYear.Amount
			previous := item.PreviousYear.Amount
			if current <= 0 && previous <= 0 {
				continue
			}
			growth := 0.0
			if previous > 0 {
				growth = float64(current-previous) / float64(previous) * 100
			}
			lines = append(lines, fmt.Sprintf("- %s: %s (전년대비 %s)",
				item.AccountName,
				utils.FormatKRWCompact(float64(current)),
				utils.FormatPercent(growth, true)))
		}
		if len(lines) > 0 {
			b.WriteString(header + "\n")
			b.WriteString(strings.Join(lines, "\n"))
			b.WriteString("\n\n")
		}
	}

	writeItems("## 손익계산서 주요 항목:", models.SectionIncomeStatement,
		[]string{"매출액", "영업이익", "당기순이익"})
	writeItems("## 재무상태표 주요 항목:", models.SectionBalanceSheet,
		[]string{"자산총계", "부채총계", "자본총계"})

	if ratios != nil {
		var lines []string
		for _, cat := range []map[string]models.RatioValue{ratios.Profitability, ratios.Stability} {
			keys := make([]string, 0, len(cat))
			for k := range cat {
				keys = append(keys, k)
			}
			sort.Strings(keys) // stable prompt text across runs
			for _, k := range keys {
				rv := cat[k]
				lines = append(lines, fmt.Sprintf("- %s: %.2f%s", rv.Name, rv.Value, rv.Unit))
				if len(lines) >= 6 {
					break
				}
			}
			if len(lines) >= 6 {
				break
			}
		}
		if len(lines) > 0 {
			b.WriteString("## 주요 재무비율:\n")
			b.WriteString(strings.Join(lines, "\n"))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func analysisPrompt(summary string) string {
	return fmt.Sprintf(`다음 재무제표 데이터를 바탕으로 일반인도 쉽게 이해할 수 있도록 분석해주세요.

%s

다음 관점에서 친근하고 이해하기 쉽게 설명해주세요:

1. **📊 전반적인 재무 상황**: 이 회사의 재무 상태가 어떤지 간단히 요약
2. **💰 수익성 분석**: 매출과 이익 상황이 어떤지, 좋은지 나쁜지
3. **🏦 재무 안정성**: 회사가 안정적인지, 부채는 많은지
4. **📈 성장성**: 전년 대비 성장하고 있는지
5. **⚠️ 주의사항**: 투자자가 알아야 할 위험요소나 특이사항
6. **🎯 종합 의견**: 이 회사에 대한 전반적인 평가

답변은 반드시 한국어로 하고, 전문용어는 쉽게 풀어서 설명해주세요.
각 섹션은 2-3문장으로 간결하게 작성해주세요.`, summary)
}

func comparisonPrompt(summary string) string {
	return fmt.Sprintf(`다음 재무데이터 변화를 분석해서 쉽게 설명해주세요:

%s

다음 관점에서 분석해주세요:

1. **📊 주요 변화**: 가장 눈에 띄는 변화 사항
2. **📈 긍정적 요소**: 좋아진 부분들
3. **📉 부정적 요소**: 악화된 부분들
4. **🔍 원인 분석**: 이런 변화가 일어난 가능한 이유
5. **🎯 종합 평가**: 전반적으로 회사가 나아졌는지 악화됐는지

한국어로 쉽게 설명해주세요. 각 섹션은 2-3문장으로 간결하게 작성해주세요.`, summary)
}
