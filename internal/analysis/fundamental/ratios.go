package fundamental

import (
	"sort"
	"strings"

	"github.com/dartlab/dartview/pkg/models"
)

// periodPair holds the current and prior-year amount of one key account.
type periodPair struct {
	current  float64
	previous float64
}

// extractKeyAccounts pulls the accounts the ratio formulas need out of the
// classified lines. When DART repeats an account name (consolidated vs
// separate statements) the last occurrence wins.
func extractKeyAccounts(parsed *models.ParsedStatements) map[string]periodPair {
	accounts := make(map[string]periodPair)
	for _, item := range parsed.Items {
		name := item.AccountName
		pair := periodPair{
			current:  float64(item.CurrentYear.Amount),
			previous: float64(item.PreviousYear.Amount),
		}

		switch item.SJDiv {
		case models.SectionBalanceSheet:
			switch {
			case strings.Contains(name, "자산총계"):
				accounts["total_assets"] = pair
			case strings.Contains(name, "유동자산"):
				accounts["current_assets"] = pair
			case strings.Contains(name, "부채총계"):
				accounts["total_liabilities"] = pair
			case strings.Contains(name, "유동부채"):
				accounts["current_liabilities"] = pair
			case strings.Contains(name, "자본총계"):
				accounts["total_equity"] = pair
			}
		case models.SectionIncomeStatement:
			switch {
			case strings.Contains(name, "매출액") && !strings.Contains(name, "매출원가"):
				accounts["revenue"] = pair
			case strings.Contains(name, "영업이익"):
				accounts["operating_profit"] = pair
			case strings.Contains(name, "당기순이익") && !strings.Contains(name, "손실"):
				accounts["net_income"] = pair
			}
		}
	}
	return accounts
}

// ComputeRatios calculates the ratio categories from one year's classified
// statements. A ratio is only emitted when its inputs are present and the
// denominator is positive.
func ComputeRatios(parsed *models.ParsedStatements) models.RatioSet {
	ratios := models.NewRatioSet()
	if parsed.Empty() {
		return ratios
	}
	acc := extractKeyAccounts(parsed)

	netIncome, hasNI := acc["net_income"]
	equity, hasEq := acc["total_equity"]
	assets, hasAs := acc["total_assets"]
	revenue, hasRev := acc["revenue"]
	opProfit, hasOP := acc["operating_profit"]
	liabilities, hasLi := acc["total_liabilities"]
	curAssets, hasCA := acc["current_assets"]
	curLiabilities, hasCL := acc["current_liabilities"]

	// 수익성
	if hasNI && hasEq && equity.current > 0 {
		ratios.Profitability["roe"] = models.RatioValue{
			Value: netIncome.current / equity.current * 100,
			Name:  "ROE (자기자본이익률)", Unit: "%",
		}
	}
	if hasNI && hasAs && assets.current > 0 {
		ratios.Profitability["roa"] = models.RatioValue{
			Value: netIncome.current / assets.current * 100,
			Name:  "ROA (총자산이익률)", Unit: "%",
		}
	}
	if hasOP && hasRev && revenue.current > 0 {
		ratios.Profitability["operating_margin"] = models.RatioValue{
			Value: opProfit.current / revenue.current * 100,
			Name:  "영업이익률", Unit: "%",
		}
	}
	if hasNI && hasRev && revenue.current > 0 {
		ratios.Profitability["net_margin"] = models.RatioValue{
			Value: netIncome.current / revenue.current * 100,
			Name:  "순이익률", Unit: "%",
		}
	}

	// 안정성
	if hasLi && hasEq && equity.current > 0 {
		ratios.Stability["debt_ratio"] = models.RatioValue{
			Value: liabilities.current / equity.current * 100,
			Name:  "부채비율", Unit: "%",
		}
	}
	if hasEq && hasAs && assets.current > 0 {
		ratios.Stability["equity_ratio"] = models.RatioValue{
			Value: equity.current / assets.current * 100,
			Name:  "자기자본비율", Unit: "%",
		}
	}
	if hasCA && hasCL && curLiabilities.current > 0 {
		ratios.Stability["current_ratio"] = models.RatioValue{
			Value: curAssets.current / curLiabilities.current * 100,
			Name:  "유동비율", Unit: "%",
		}
	}

	// 성장성
	if hasRev && revenue.previous > 0 {
		ratios.Growth["revenue_growth"] = models.RatioValue{
			Value: (revenue.current - revenue.previous) / revenue.previous * 100,
			Name:  "매출액 증가율", Unit: "%",
		}
	}
	if hasNI && netIncome.previous > 0 {
		ratios.Growth["income_growth"] = models.RatioValue{
			Value: (netIncome.current - netIncome.previous) / netIncome.previous * 100,
			Name:  "순이익 증가율", Unit: "%",
		}
	}
	if hasAs && assets.previous > 0 {
		ratios.Growth["asset_growth"] = models.RatioValue{
			Value: (assets.current - assets.previous) / assets.previous * 100,
			Name:  "총자산 증가율", Unit: "%",
		}
	}

	// 활동성
	if hasRev && hasAs && assets.current > 0 {
		ratios.Activity["asset_turnover"] = models.RatioValue{
			Value: revenue.current / assets.current,
			Name:  "총자산회전율", Unit: "회",
		}
	}

	return ratios
}

// ComputeMultiYearRatios runs ComputeRatios per year.
func ComputeMultiYearRatios(byYear map[int]*models.ParsedStatements) map[int]models.RatioSet {
	out := make(map[int]models.RatioSet, len(byYear))
	for year, parsed := range byYear {
		out[year] = ComputeRatios(parsed)
	}
	return out
}

// RatioTrend extracts one ratio's year-by-year series from multi-year
// results, for charting. Years where the ratio is absent are skipped.
func RatioTrend(byYear map[int]models.RatioSet, category, name string) models.RatioTrend {
	var trend models.RatioTrend

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, year := range years {
		cat := byYear[year].Category(category)
		rv, ok := cat[name]
		if !ok {
			continue
		}
		trend.Years = append(trend.Years, year)
		trend.Values = append(trend.Values, rv.Value)
		if trend.Info == nil {
			trend.Info = &models.RatioValue{Name: rv.Name, Unit: rv.Unit}
		}
	}
	return trend
}
