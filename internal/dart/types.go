package dart

import (
	"net/url"
	"strconv"

	"github.com/dartlab/dartview/pkg/models"
)

// apiStatus is the status envelope present in every DART JSON body.
// The status sentinel is independent of the HTTP status code: the API
// reports logical failures inside a 200 response.
type apiStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CompanyProfile is the company.json response (기업개황).
type CompanyProfile struct {
	apiStatus

	CorpCode    string `json:"corp_code"`
	CorpName    string `json:"corp_name"`
	CorpNameEng string `json:"corp_name_eng"`
	StockName   string `json:"stock_name"`
	StockCode   string `json:"stock_code"`
	CEOName     string `json:"ceo_nm"`
	CorpClass   string `json:"corp_cls"` // Y: KOSPI, K: KOSDAQ, N: KONEX, E: other
	JurirNo     string `json:"jurir_no"` // corporate registration number
	BizrNo      string `json:"bizr_no"`  // business registration number
	Address     string `json:"adres"`
	HomeURL     string `json:"hm_url"`
	IRURL       string `json:"ir_url"`
	PhoneNo     string `json:"phn_no"`
	FaxNo       string `json:"fax_no"`
	IndustyCode string `json:"induty_code"`
	EstDate     string `json:"est_dt"` // YYYYMMDD
	AccMonth    string `json:"acc_mt"` // fiscal year-end month
}

// Listed reports whether the company trades on an exchange.
func (p *CompanyProfile) Listed() bool {
	return p.StockCode != ""
}

// Disclosure is one filing in a list.json response (공시검색).
type Disclosure struct {
	CorpCode   string `json:"corp_code"`
	CorpName   string `json:"corp_name"`
	StockCode  string `json:"stock_code"`
	CorpClass  string `json:"corp_cls"`
	ReportName string `json:"report_nm"`
	ReceiptNo  string `json:"rcept_no"`
	FilerName  string `json:"flr_nm"`
	ReceiptDt  string `json:"rcept_dt"` // YYYYMMDD
	Remark     string `json:"rm"`
}

// DisclosureList is the list.json response. The list order is exactly the
// server's; no client-side sorting or re-pagination happens.
type DisclosureList struct {
	apiStatus

	PageNo     int          `json:"page_no"`
	PageCount  int          `json:"page_count"`
	TotalCount int          `json:"total_count"`
	TotalPage  int          `json:"total_page"`
	List       []Disclosure `json:"list"`
}

// DisclosureQuery is the filter set for Disclosures. CorpCode is required;
// every other field is optional and omitted from the request when blank.
type DisclosureQuery struct {
	CorpCode       string // corp_code, 8 digits, required
	BeginDate      string // bgn_de, YYYYMMDD
	EndDate        string // end_de, YYYYMMDD
	LastReportOnly bool   // last_reprt_at=Y, final reports only
	PublicType     string // pblntf_ty, e.g. "A" periodic reports
	PublicDetail   string // pblntf_detail_ty
	CorpClass      string // corp_cls, Y/K/N/E
	SortField      string // sort: date, crp, rpt
	SortOrder      string // sort_mth: asc, desc
	PageNo         int    // page_no, 1-based
	PageCount      int    // page_count, 1..100
}

// values serializes exactly the present fields under their documented
// API parameter names.
func (q DisclosureQuery) values() url.Values {
	v := url.Values{}
	v.Set("corp_code", q.CorpCode)
	if q.BeginDate != "" {
		v.Set("bgn_de", q.BeginDate)
	}
	if q.EndDate != "" {
		v.Set("end_de", q.EndDate)
	}
	if q.LastReportOnly {
		v.Set("last_reprt_at", "Y")
	}
	if q.PublicType != "" {
		v.Set("pblntf_ty", q.PublicType)
	}
	if q.PublicDetail != "" {
		v.Set("pblntf_detail_ty", q.PublicDetail)
	}
	if q.CorpClass != "" {
		v.Set("corp_cls", q.CorpClass)
	}
	if q.SortField != "" {
		v.Set("sort", q.SortField)
	}
	if q.SortOrder != "" {
		v.Set("sort_mth", q.SortOrder)
	}
	if q.PageNo > 0 {
		v.Set("page_no", strconv.Itoa(q.PageNo))
	}
	if q.PageCount > 0 {
		v.Set("page_count", strconv.Itoa(q.PageCount))
	}
	return v
}

// Account is one line of a fnlttSinglAcnt.json response, kept with the raw
// server strings; parsed amounts live in models.StatementItem.
type Account struct {
	ReceiptNo    string `json:"rcept_no"`
	BsnsYear     string `json:"bsns_year"`
	CorpCode     string `json:"corp_code"`
	StockCode    string `json:"stock_code"`
	ReprtCode    string `json:"reprt_code"`
	AccountName  string `json:"account_nm"`
	FSDiv        string `json:"fs_div"`
	FSName       string `json:"fs_nm"`
	SJDiv        string `json:"sj_div"`
	SJName       string `json:"sj_nm"`
	ThstrmName   string `json:"thstrm_nm"`
	ThstrmDate   string `json:"thstrm_dt"`
	ThstrmAmount string `json:"thstrm_amount"`
	FrmtrmName   string `json:"frmtrm_nm"`
	FrmtrmDate   string `json:"frmtrm_dt"`
	FrmtrmAmount string `json:"frmtrm_amount"`
	Currency     string `json:"currency"`
	Ord          string `json:"ord"`
}

// FinancialStatements is the fnlttSinglAcnt.json response (단일회사 주요계정).
type FinancialStatements struct {
	apiStatus

	List []Account `json:"list"`
}

// Report code re-exports so callers don't need both packages for the
// common case.
const (
	ReportAnnual = models.ReportAnnual
	ReportHalf   = models.ReportHalf
	ReportQ1     = models.ReportQ1
	ReportQ3     = models.ReportQ3
)
