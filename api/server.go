// Package api provides the HTTP REST API server for DARTView.
//
// It exposes endpoints for company search, profiles, disclosure lists,
// financial statements, ratio analysis, AI commentary and corp-code index
// maintenance, plus the embedded web front end.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dartlab/dartview/internal/ai"
	"github.com/dartlab/dartview/internal/analysis/fundamental"
	"github.com/dartlab/dartview/internal/config"
	"github.com/dartlab/dartview/internal/corpcode"
	"github.com/dartlab/dartview/internal/dart"
	"github.com/dartlab/dartview/internal/infra"
	"github.com/dartlab/dartview/pkg/models"
	"github.com/dartlab/dartview/pkg/utils"
	"github.com/dartlab/dartview/web"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config

	dart     *dart.Client
	analyzer *ai.Analyzer

	mu       sync.RWMutex // guards searcher, swapped on codes refresh
	searcher *corpcode.Searcher

	trendCache *infra.Cache
	serveUI    bool
}

// NewServer creates a configured API server with all routes and middleware.
// A missing corp-code index is tolerated: search answers 503 until the index
// is refreshed.
func NewServer(cfg *config.Config) (*Server, error) {
	client, err := dart.New(cfg.DART, dart.WithConcurrency(cfg.Analysis.ConcurrentFetches))
	if err != nil {
		return nil, err
	}

	cacheTTL := time.Duration(cfg.Analysis.CacheTTL) * time.Second

	srv := &Server{
		cfg:        cfg,
		dart:       client,
		analyzer:   ai.NewAnalyzer(cfg.Gemini, cacheTTL),
		trendCache: infra.NewCache(cacheTTL),
		serveUI:    true,
	}

	searcher, err := corpcode.LoadSearcher(cfg.Codes.IndexPath, cfg.Codes.SamplePath)
	if err != nil {
		log.Printf("corp-code index unavailable, search disabled until refresh: %v", err)
	} else {
		srv.searcher = searcher
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// SetServeUI controls whether the embedded web UI is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/search", s.handleSearch)
		r.Get("/company/{corpCode}", s.handleCompany)
		r.Get("/disclosures/{corpCode}", s.handleDisclosures)

		r.Get("/financial/{corpCode}/{year}", s.handleFinancial)
		r.Get("/ratios/{corpCode}/{year}", s.handleRatios)
		r.Get("/trends/{corpCode}", s.handleTrends)
		r.Get("/analysis/{corpCode}/{year}", s.handleAnalysis)
		r.Get("/comparison/{corpCode}", s.handleComparison)

		r.Post("/codes/refresh", s.handleRefreshCodes)
		r.Get("/config/keys", s.handleConfigKeys)
	})

	if s.serveUI {
		s.mountStatic(r, web.DistFS())
	}

	return r
}

// mountStatic serves the embedded front end. Unknown paths fall back to
// index.html so the page's hash routing keeps working on reload.
func (s *Server) mountStatic(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServer(http.FS(distFS))

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}

		f, err := distFS.Open(rPath)
		if err != nil {
			serveIndexHTML(w, distFS)
			return
		}
		f.Close()

		if strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fileServer.ServeHTTP(w, r)
	})
}

func serveIndexHTML(w http.ResponseWriter, distFS fs.FS) {
	data, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "web UI not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// getSearcher returns the current corp-code searcher, which refresh swaps.
func (s *Server) getSearcher() *corpcode.Searcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searcher
}

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	companies := 0
	if sr := s.getSearcher(); sr != nil {
		companies = sr.Len()
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":        "ok",
			"version":       "dev",
			"dart_key_set":  s.cfg.DART.APIKey != "",
			"ai_enabled":    s.analyzer.Enabled(),
			"company_count": companies,
		},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sr := s.getSearcher()
	if sr == nil {
		writeError(w, http.StatusServiceUnavailable, "corp-code index not loaded; POST /api/v1/codes/refresh first")
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Data:    map[string]interface{}{"companies": []corpcode.Company{}, "status": "empty_query"},
		})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	companies := sr.SearchMerged(q, limit)
	if companies == nil {
		companies = []corpcode.Company{}
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"companies": companies,
			"count":     len(companies),
		},
	})
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	corpCode := chi.URLParam(r, "corpCode")
	if !utils.IsCorpCode(corpCode) {
		writeError(w, http.StatusBadRequest, "corp code must be 8 digits")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	profile, err := s.dart.Company(ctx, corpCode)
	if err != nil {
		writeDARTError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: profile})
}

func (s *Server) handleDisclosures(w http.ResponseWriter, r *http.Request) {
	corpCode := chi.URLParam(r, "corpCode")
	if !utils.IsCorpCode(corpCode) {
		writeError(w, http.StatusBadRequest, "corp code must be 8 digits")
		return
	}

	qp := r.URL.Query()
	query := dart.DisclosureQuery{
		CorpCode:       corpCode,
		BeginDate:      qp.Get("bgn_de"),
		EndDate:        qp.Get("end_de"),
		LastReportOnly: qp.Get("last_reprt_at") == "Y",
		PublicType:     qp.Get("pblntf_ty"),
		PublicDetail:   qp.Get("pblntf_detail_ty"),
		CorpClass:      qp.Get("corp_cls"),
	}
	for _, d := range []string{query.BeginDate, query.EndDate} {
		if d != "" && !utils.IsYYYYMMDD(d) {
			writeError(w, http.StatusBadRequest, "dates must be YYYYMMDD")
			return
		}
	}
	if v := qp.Get("page_no"); v != "" {
		query.PageNo, _ = strconv.Atoi(v)
	}
	if v := qp.Get("page_count"); v != "" {
		query.PageCount, _ = strconv.Atoi(v)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	list, err := s.dart.Disclosures(ctx, query)
	if err != nil {
		writeDARTError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: list})
}

// fetchParsed gets one company-year's statements classified, or writes the
// error response and returns nil.
func (s *Server) fetchParsed(w http.ResponseWriter, r *http.Request) (*models.ParsedStatements, string, int) {
	corpCode := chi.URLParam(r, "corpCode")
	if !utils.IsCorpCode(corpCode) {
		writeError(w, http.StatusBadRequest, "corp code must be 8 digits")
		return nil, "", 0
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2015 || year > time.Now().Year() {
		writeError(w, http.StatusBadRequest, "year must be a valid business year (2015 or later)")
		return nil, "", 0
	}
	reprtCode := r.URL.Query().Get("reprt_code")

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	fs, err := s.dart.FinancialStatements(ctx, corpCode, strconv.Itoa(year), reprtCode)
	if err != nil {
		writeDARTError(w, err)
		return nil, "", 0
	}
	parsed := fundamental.ParseStatements(fs)
	if parsed.Empty() {
		writeError(w, http.StatusNotFound, "데이터를 찾을 수 없습니다.")
		return nil, "", 0
	}
	return parsed, corpCode, year
}

func (s *Server) handleFinancial(w http.ResponseWriter, r *http.Request) {
	parsed, corpCode, year := s.fetchParsed(w, r)
	if parsed == nil {
		return
	}
	reprtCode := r.URL.Query().Get("reprt_code")
	if reprtCode == "" {
		reprtCode = models.ReportAnnual
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"corp_code":   corpCode,
			"year":        year,
			"report_name": models.ReportName(reprtCode),
			"statements":  parsed,
		},
	})
}

func (s *Server) handleRatios(w http.ResponseWriter, r *http.Request) {
	parsed, corpCode, year := s.fetchParsed(w, r)
	if parsed == nil {
		return
	}
	ratios := fundamental.ComputeRatios(parsed)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"corp_code": corpCode,
			"year":      year,
			"ratios":    ratios,
		},
	})
}

// trendsPayload is the chart feed: headline account series plus per-ratio
// year series.
type trendsPayload struct {
	CorpCode string                          `json:"corp_code"`
	Years    []int                           `json:"years"`
	Series   map[string][]models.SeriesPoint `json:"series"`
	Ratios   map[string]models.RatioTrend    `json:"ratios"`
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	corpCode := chi.URLParam(r, "corpCode")
	if !utils.IsCorpCode(corpCode) {
		writeError(w, http.StatusBadRequest, "corp code must be 8 digits")
		return
	}

	// Default range: the last three completed business years.
	toYear := time.Now().Year() - 1
	fromYear := toYear - 2
	if v := r.URL.Query().Get("from"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			fromYear = n
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			toYear = n
		}
	}
	if fromYear > toYear || toYear-fromYear > 9 {
		writeError(w, http.StatusBadRequest, "invalid year range (max 10 years)")
		return
	}

	cacheKey := fmt.Sprintf("trends:%s:%d-%d", corpCode, fromYear, toYear)
	if cached, ok := s.trendCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: cached})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	byYearRaw, err := s.dart.MultiYearStatements(ctx, corpCode, fromYear, toYear)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	byYear := fundamental.ParseMultiYear(byYearRaw)
	if len(byYear) == 0 {
		writeError(w, http.StatusNotFound, "데이터를 찾을 수 없습니다.")
		return
	}

	ratiosByYear := fundamental.ComputeMultiYearRatios(byYear)

	payload := trendsPayload{
		CorpCode: corpCode,
		Years:    dart.Years(byYearRaw),
		Series:   make(map[string][]models.SeriesPoint),
		Ratios:   make(map[string]models.RatioTrend),
	}
	for key, account := range map[string]string{
		"revenue":          "매출액",
		"operating_profit": "영업이익",
		"net_income":       "당기순이익",
		"total_assets":     "자산총계",
	} {
		if series := fundamental.AccountSeries(byYear, account); len(series) > 0 {
			payload.Series[key] = series
		}
	}
	for _, sel := range []struct{ category, name string }{
		{"profitability", "roe"},
		{"profitability", "operating_margin"},
		{"stability", "debt_ratio"},
		{"stability", "current_ratio"},
		{"growth", "revenue_growth"},
		{"activity", "asset_turnover"},
	} {
		if trend := fundamental.RatioTrend(ratiosByYear, sel.category, sel.name); len(trend.Years) > 0 {
			payload.Ratios[sel.name] = trend
		}
	}

	s.trendCache.Set(cacheKey, payload)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: payload})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if !s.analyzer.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "AI 분석이 비활성화되어 있습니다. GEMINI_API_KEY를 설정하세요.")
		return
	}

	parsed, corpCode, year := s.fetchParsed(w, r)
	if parsed == nil {
		return
	}
	ratios := fundamental.ComputeRatios(parsed)

	companyName := corpCode
	if sr := s.getSearcher(); sr != nil {
		if c, ok := sr.ByCorpCode(corpCode); ok {
			companyName = c.CorpName
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	text, err := s.analyzer.AnalyzeStatements(ctx, ai.AnalysisRequest{
		CorpCode:    corpCode,
		CompanyName: companyName,
		Year:        year,
		Statements:  parsed,
		Ratios:      &ratios,
	})
	if errors.Is(err, ai.ErrQuotaExceeded) {
		writeJSON(w, http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Error:   "Gemini API 할당량이 초과되었습니다. 잠시 후 다시 시도해주세요.",
			Data:    map[string]interface{}{"quota_exceeded": true},
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"corp_code":    corpCode,
			"company_name": companyName,
			"year":         year,
			"analysis":     text,
		},
	})
}

// handleComparison explains how the headline accounts moved between two
// consecutive years. ?year= selects the current year, default the last
// completed one; the prior year comes from its own statement fetch.
func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	if !s.analyzer.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "AI 분석이 비활성화되어 있습니다. GEMINI_API_KEY를 설정하세요.")
		return
	}

	corpCode := chi.URLParam(r, "corpCode")
	if !utils.IsCorpCode(corpCode) {
		writeError(w, http.StatusBadRequest, "corp code must be 8 digits")
		return
	}
	year := time.Now().Year() - 1
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2016 || n > time.Now().Year() {
			writeError(w, http.StatusBadRequest, "year must be a valid business year (2016 or later)")
			return
		}
		year = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	byYearRaw, err := s.dart.MultiYearStatements(ctx, corpCode, year-1, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	byYear := fundamental.ParseMultiYear(byYearRaw)
	current, previous := byYear[year], byYear[year-1]
	if current.Empty() || previous.Empty() {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("%d년 또는 %d년 데이터가 없습니다.", year, year-1))
		return
	}

	companyName := corpCode
	if sr := s.getSearcher(); sr != nil {
		if c, ok := sr.ByCorpCode(corpCode); ok {
			companyName = c.CorpName
		}
	}

	text, err := s.analyzer.AnalyzeComparison(ctx, ai.ComparisonRequest{
		CorpCode:    corpCode,
		CompanyName: companyName,
		Year:        year,
		Current:     current,
		Previous:    previous,
	})
	if errors.Is(err, ai.ErrQuotaExceeded) {
		writeJSON(w, http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Error:   "Gemini API 할당량이 초과되었습니다. 잠시 후 다시 시도해주세요.",
			Data:    map[string]interface{}{"quota_exceeded": true},
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"corp_code":     corpCode,
			"company_name":  companyName,
			"year":          year,
			"previous_year": year - 1,
			"analysis":      text,
		},
	})
}

func (s *Server) handleRefreshCodes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	if err := s.dart.DownloadCorpCodes(ctx, s.cfg.Codes.ArchivePath); err != nil {
		writeDARTError(w, err)
		return
	}
	companies, err := corpcode.ExtractArchive(s.cfg.Codes.ArchivePath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := corpcode.WriteIndex(s.cfg.Codes.IndexPath, companies, "CORPCODE.xml"); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.searcher = corpcode.NewSearcher(companies)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"total_count":  len(companies),
			"listed_count": corpcode.CountListed(companies),
			"index_path":   s.cfg.Codes.IndexPath,
		},
	})
}

// writeDARTError maps client errors onto HTTP statuses: logical "no data"
// becomes 404, other API statuses and transport errors become 502, bad
// requests stay 400.
func writeDARTError(w http.ResponseWriter, err error) {
	var apiErr *dart.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.NoData():
			writeError(w, http.StatusNotFound, "데이터를 찾을 수 없습니다.")
		case apiErr.Code == dart.StatusBadField:
			writeError(w, http.StatusBadRequest, apiErr.Message)
		default:
			writeError(w, http.StatusBadGateway, apiErr.Error())
		}
		return
	}
	var httpErr *infra.ErrHTTP
	if errors.As(err, &httpErr) {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
