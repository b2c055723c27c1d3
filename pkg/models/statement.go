// Package models defines the shared data structures exchanged between the
// DART client, the fundamental analysis layer, the HTTP API and the CLI.
package models

import "time"

// Statement section discriminators as used by DART (sj_div).
const (
	SectionBalanceSheet    = "BS"
	SectionIncomeStatement = "IS"
)

// Report codes accepted by the fnlttSinglAcnt endpoint (reprt_code).
const (
	ReportAnnual   = "11011" // 사업보고서
	ReportHalf     = "11012" // 반기보고서
	ReportQ1       = "11013" // 1분기보고서
	ReportQ3       = "11014" // 3분기보고서
)

// ReportName returns the human-readable Korean name for a report code.
func ReportName(code string) string {
	switch code {
	case ReportAnnual:
		return "사업보고서"
	case ReportHalf:
		return "반기보고서"
	case ReportQ1:
		return "1분기보고서"
	case ReportQ3:
		return "3분기보고서"
	default:
		return "알 수 없는 보고서"
	}
}

// PeriodAmount is one reporting period of a single account.
type PeriodAmount struct {
	Amount int64  `json:"amount"`
	Period string `json:"period"` // e.g. "제 55 기"
	Date   string `json:"date"`   // e.g. "2023.12.31 현재"
}

// StatementItem is a single classified account line.
type StatementItem struct {
	AccountName  string       `json:"account_name"`
	CurrentYear  PeriodAmount `json:"current_year"`
	PreviousYear PeriodAmount `json:"previous_year"`
	Currency     string       `json:"currency"`
	FSDiv        string       `json:"fs_div"` // CFS: consolidated, OFS: separate
	FSName       string       `json:"fs_nm"`
	SJDiv        string       `json:"sj_div"` // BS or IS
	SJName       string       `json:"sj_nm"`
}

// ParsedStatements groups raw statement lines into balance-sheet and
// income-statement buckets, keyed by account name.
type ParsedStatements struct {
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	ParsedAt time.Time `json:"parsed_at"`

	BalanceSheet struct {
		Assets      map[string]StatementItem `json:"assets"`
		Liabilities map[string]StatementItem `json:"liabilities"`
		Equity      map[string]StatementItem `json:"equity"`
	} `json:"balance_sheet"`

	IncomeStatement struct {
		Revenue  map[string]StatementItem `json:"revenue"`
		Profit   map[string]StatementItem `json:"profit"`
		Expenses map[string]StatementItem `json:"expenses"`
	} `json:"income_statement"`

	Items []StatementItem `json:"raw_data"`
}

// Empty reports whether no statement lines were parsed.
func (p *ParsedStatements) Empty() bool {
	return p == nil || len(p.Items) == 0
}
