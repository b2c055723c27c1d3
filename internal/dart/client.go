// Package dart implements the Open DART (Korea FSS 전자공시) API client.
//
// Authentication is a single API key passed as the crtfc_key query
// parameter. Every JSON body carries a status sentinel that is independent
// of the HTTP status code; "000" means success. Logical failures surface as
// *APIError so callers can tell them apart from transport errors without
// reading logs.
//
// Docs: https://opendart.fss.or.kr/guide/main.do
package dart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dartlab/dartview/internal/config"
	"github.com/dartlab/dartview/internal/infra"
)

// Status sentinels returned in the JSON body.
const (
	StatusOK           = "000"
	StatusKeyNotFound  = "010"
	StatusKeyUnusable  = "011"
	StatusNoData       = "013"
	StatusRequestLimit = "020"
	StatusBadField     = "100"
	StatusMaintenance  = "800"
)

// APIError is a logical API failure: HTTP transport succeeded but the body
// carried a non-success status sentinel.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dart: API status %s: %s", e.Code, e.Message)
}

// NoData reports whether the failure just means an empty result set,
// which callers usually treat as "no rows" rather than an error.
func (e *APIError) NoData() bool { return e.Code == StatusNoData }

// Client is the Open DART API client. It is immutable after construction
// and safe for concurrent use; each operation is one stateless
// request/response cycle with no retries, caching or rate limiting.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client

	concurrency int // fan-out width for multi-year fetches
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (tests point this at httptest).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithConcurrency bounds the fan-out of MultiYearStatements.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a client from configuration. A missing API key is a fatal
// configuration error: no request can be issued without credentials.
func New(cfg config.DARTConfig, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("dart: API key is required (set DART_API_KEY)")
	}
	base := cfg.BaseURL
	if base == "" {
		base = config.DefaultBaseURL
	}
	c := &Client{
		baseURL:     base,
		apiKey:      cfg.APIKey,
		client:      infra.HTTPClient,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured endpoint root.
func (c *Client) BaseURL() string { return c.baseURL }

// Company fetches the company profile (기업개황) for an 8-digit corp code.
func (c *Client) Company(ctx context.Context, corpCode string) (*CompanyProfile, error) {
	params := url.Values{}
	params.Set("corp_code", corpCode)

	var profile CompanyProfile
	if err := c.getJSON(ctx, "/company.json", params, &profile, &profile.apiStatus); err != nil {
		return nil, fmt.Errorf("dart: company %s: %w", corpCode, err)
	}
	return &profile, nil
}

// Disclosures fetches a page of the disclosure list (공시검색). Results come
// back in server order; callers wanting more pages issue repeated calls
// with an incremented PageNo.
func (c *Client) Disclosures(ctx context.Context, q DisclosureQuery) (*DisclosureList, error) {
	if q.CorpCode == "" {
		return nil, fmt.Errorf("dart: disclosures: corp code is required")
	}

	var list DisclosureList
	if err := c.getJSON(ctx, "/list.json", q.values(), &list, &list.apiStatus); err != nil {
		return nil, fmt.Errorf("dart: disclosures %s: %w", q.CorpCode, err)
	}
	return &list, nil
}

// FinancialStatements fetches the key accounts (단일회사 주요계정) of one
// company for one business year and report code.
func (c *Client) FinancialStatements(ctx context.Context, corpCode, bsnsYear, reprtCode string) (*FinancialStatements, error) {
	if reprtCode == "" {
		reprtCode = ReportAnnual
	}
	params := url.Values{}
	params.Set("corp_code", corpCode)
	params.Set("bsns_year", bsnsYear)
	params.Set("reprt_code", reprtCode)

	var fs FinancialStatements
	if err := c.getJSON(ctx, "/fnlttSinglAcnt.json", params, &fs, &fs.apiStatus); err != nil {
		return nil, fmt.Errorf("dart: financials %s/%s: %w", corpCode, bsnsYear, err)
	}
	return &fs, nil
}

// MultiYearStatements fetches annual statements for an inclusive year range
// concurrently. Years that fail (including "no data") are skipped; the
// returned map holds whatever succeeded. Years() on the result gives a
// sorted view.
func (c *Client) MultiYearStatements(ctx context.Context, corpCode string, fromYear, toYear int) (map[int]*FinancialStatements, error) {
	if fromYear > toYear {
		return nil, fmt.Errorf("dart: multi-year: from %d after to %d", fromYear, toYear)
	}

	results := make(map[int]*FinancialStatements)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for year := fromYear; year <= toYear; year++ {
		year := year
		g.Go(func() error {
			fs, err := c.FinancialStatements(gctx, corpCode, strconv.Itoa(year), ReportAnnual)
			if err != nil {
				return nil // per-year failures are non-fatal
			}
			mu.Lock()
			results[year] = fs
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Years returns the sorted year keys of a multi-year result.
func Years(m map[int]*FinancialStatements) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// DownloadCorpCodes downloads the bulk corp-code archive (a ZIP containing
// CORPCODE.xml) to dest. The body is written to a temporary file in dest's
// directory and renamed into place on success, so a partial file is never
// visible under the final name.
func (c *Client) DownloadCorpCodes(ctx context.Context, dest string) error {
	params := url.Values{}
	params.Set("crtfc_key", c.apiKey)

	body, _, err := infra.DoGetWith(ctx, c.client, c.baseURL+"/corpCode.xml?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("dart: download corp codes: %w", err)
	}
	defer body.Close()

	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".corpcodes-*.tmp")
	if err != nil {
		return fmt.Errorf("dart: download corp codes: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("dart: download corp codes: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("dart: download corp codes: close: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("dart: download corp codes: rename: %w", err)
	}
	return nil
}

// Ping verifies connectivity and credentials with a one-row list query.
// A "no data" status still proves the key works.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Disclosures(ctx, DisclosureQuery{
		CorpCode:  "00126380", // Samsung Electronics, guaranteed to exist
		PageNo:    1,
		PageCount: 1,
	})
	var apiErr *APIError
	if err != nil && errors.As(err, &apiErr) && apiErr.NoData() {
		return nil
	}
	return err
}

// getJSON issues a GET for path with params plus the API key, decodes the
// body into dest, and converts a non-success status sentinel to *APIError.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest any, status *apiStatus) error {
	params.Set("crtfc_key", c.apiKey)

	body, _, err := infra.DoGetWith(ctx, c.client, c.baseURL+path+"?"+params.Encode(), map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse DART JSON: %w", err)
	}
	if status.Status != StatusOK {
		return &APIError{Code: status.Status, Message: status.Message}
	}
	return nil
}
