// Package fundamental turns raw DART statement lines into classified
// statements and computes the standard Korean financial ratio categories:
// profitability, stability, growth and activity.
package fundamental

import (
	"sort"
	"strings"
	"time"

	"github.com/dartlab/dartview/internal/dart"
	"github.com/dartlab/dartview/pkg/models"
	"github.com/dartlab/dartview/pkg/utils"
)

// ParseStatements classifies the account lines of a fnlttSinglAcnt response
// into balance-sheet and income-statement buckets. Classification keys off
// substrings of the Korean account names, the way DART labels them.
func ParseStatements(fs *dart.FinancialStatements) *models.ParsedStatements {
	if fs == nil || len(fs.List) == 0 {
		return nil
	}

	parsed := &models.ParsedStatements{
		Status:   fs.Status,
		Message:  fs.Message,
		ParsedAt: time.Now(),
	}
	parsed.BalanceSheet.Assets = make(map[string]models.StatementItem)
	parsed.BalanceSheet.Liabilities = make(map[string]models.StatementItem)
	parsed.BalanceSheet.Equity = make(map[string]models.StatementItem)
	parsed.IncomeStatement.Revenue = make(map[string]models.StatementItem)
	parsed.IncomeStatement.Profit = make(map[string]models.StatementItem)
	parsed.IncomeStatement.Expenses = make(map[string]models.StatementItem)

	for _, acc := range fs.List {
		item := toItem(acc)
		parsed.Items = append(parsed.Items, item)

		name := item.AccountName
		switch item.SJDiv {
		case models.SectionBalanceSheet:
			switch {
			case strings.Contains(name, "자산"):
				parsed.BalanceSheet.Assets[name] = item
			case strings.Contains(name, "부채") || strings.Contains(name, "차입"):
				parsed.BalanceSheet.Liabilities[name] = item
			case strings.Contains(name, "자본") || strings.Contains(name, "이익잉여금"):
				parsed.BalanceSheet.Equity[name] = item
			}
		case models.SectionIncomeStatement:
			switch {
			case strings.Contains(name, "매출"):
				parsed.IncomeStatement.Revenue[name] = item
			case strings.Contains(name, "이익") || strings.Contains(name, "손익"):
				parsed.IncomeStatement.Profit[name] = item
			case strings.Contains(name, "비용") || strings.Contains(name, "원가"):
				parsed.IncomeStatement.Expenses[name] = item
			}
		}
	}
	return parsed
}

func toItem(acc dart.Account) models.StatementItem {
	currency := acc.Currency
	if currency == "" {
		currency = "KRW"
	}
	return models.StatementItem{
		AccountName: acc.AccountName,
		CurrentYear: models.PeriodAmount{
			Amount: utils.ParseAmount(acc.ThstrmAmount),
			Period: acc.ThstrmName,
			Date:   acc.ThstrmDate,
		},
		PreviousYear: models.PeriodAmount{
			Amount: utils.ParseAmount(acc.FrmtrmAmount),
			Period: acc.FrmtrmName,
			Date:   acc.FrmtrmDate,
		},
		Currency: currency,
		FSDiv:    acc.FSDiv,
		FSName:   acc.FSName,
		SJDiv:    acc.SJDiv,
		SJName:   acc.SJName,
	}
}

// ParseMultiYear classifies a year-keyed map of statement responses.
func ParseMultiYear(byYear map[int]*dart.FinancialStatements) map[int]*models.ParsedStatements {
	out := make(map[int]*models.ParsedStatements, len(byYear))
	for year, fs := range byYear {
		if p := ParseStatements(fs); p != nil {
			out[year] = p
		}
	}
	return out
}

// AccountSeries extracts the current-year amount of one account across
// years, sorted by year. Accounts missing in a year are skipped.
func AccountSeries(byYear map[int]*models.ParsedStatements, accountName string) []models.SeriesPoint {
	var points []models.SeriesPoint
	for _, year := range sortedYears(byYear) {
		for _, item := range byYear[year].Items {
			if item.AccountName == accountName {
				points = append(points, models.SeriesPoint{Year: year, Amount: item.CurrentYear.Amount})
				break
			}
		}
	}
	return points
}

func sortedYears(byYear map[int]*models.ParsedStatements) []int {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
