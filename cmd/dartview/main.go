// DARTView — Open DART 재무제표 조회 CLI and web server
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dartlab/dartview/api"
	"github.com/dartlab/dartview/internal/ai"
	"github.com/dartlab/dartview/internal/analysis/fundamental"
	"github.com/dartlab/dartview/internal/config"
	"github.com/dartlab/dartview/internal/corpcode"
	"github.com/dartlab/dartview/internal/dart"
	"github.com/dartlab/dartview/pkg/models"
	"github.com/dartlab/dartview/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dartview",
	Short: "DARTView — Korean corporate filings and financial statements from Open DART",
	Long: `DARTView
A Go client and web front end for Korea's Open DART (전자공시) system:
company search, disclosure lists, financial statements, ratio analysis
and optional AI commentary.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(companyCmd)
	rootCmd.AddCommand(disclosuresCmd)
	rootCmd.AddCommand(financialsCmd)
	rootCmd.AddCommand(ratiosCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(codesCmd)
	rootCmd.AddCommand(serveCmd)
}

// newClient builds the DART API client, failing early when no key is set.
func newClient() (*dart.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return dart.New(cfg.DART, dart.WithConcurrency(cfg.Analysis.ConcurrentFetches))
}

// loadSearcher loads the corp-code index; nil when no index exists yet.
func loadSearcher() *corpcode.Searcher {
	sr, err := corpcode.LoadSearcher(cfg.Codes.IndexPath, cfg.Codes.SamplePath)
	if err != nil {
		return nil
	}
	return sr
}

// resolveCorpCode accepts an 8-digit corp code directly, or resolves a
// company name through the local index.
func resolveCorpCode(arg string) (string, string, error) {
	if utils.IsCorpCode(arg) {
		name := arg
		if sr := loadSearcher(); sr != nil {
			if c, ok := sr.ByCorpCode(arg); ok {
				name = c.CorpName
			}
		}
		return arg, name, nil
	}

	sr := loadSearcher()
	if sr == nil {
		return "", "", fmt.Errorf("no corp-code index; run 'dartview codes download' first, or pass an 8-digit corp code")
	}
	if c, ok := sr.SearchExact(arg); ok {
		return c.CorpCode, c.CorpName, nil
	}
	matches := sr.SearchMerged(arg, 5)
	if len(matches) == 0 {
		return "", "", fmt.Errorf("no company matching %q", arg)
	}
	if len(matches) > 1 {
		fmt.Printf("⚠️  %d companies match %q; using the first:\n", len(matches), arg)
		for _, c := range matches {
			fmt.Printf("   %s  %s\n", c.CorpCode, c.CorpName)
		}
	}
	return matches[0].CorpCode, matches[0].CorpName, nil
}

func parseYear(arg string) (int, error) {
	year, err := strconv.Atoi(arg)
	if err != nil || year < 2015 || year > time.Now().Year() {
		return 0, fmt.Errorf("year must be a valid business year (2015 or later), got %q", arg)
	}
	return year, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("DARTView %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and API key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  DARTView — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:      %s (%s)\n", version, commit)
		fmt.Printf("  DART API:     %s\n", cfg.DART.BaseURL)
		fmt.Printf("  API Server:   %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  Corp-code index:")
		if idx, err := corpcode.LoadIndex(cfg.Codes.IndexPath); err == nil {
			fmt.Printf("    %s: %d companies (converted %s)\n",
				cfg.Codes.IndexPath, idx.Metadata.TotalCount,
				idx.Metadata.ConvertedAt.Format("2006-01-02"))
		} else {
			fmt.Printf("    ❌ not built (run 'dartview codes download')\n")
		}
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-18s %s\n", k.Name+":", status)
		}

		if cfg.DART.APIKey != "" {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := client.Ping(ctx); err != nil {
				fmt.Printf("\n  DART connectivity: ❌ %v\n", err)
			} else {
				fmt.Println("\n  DART connectivity: ✅ ok")
			}
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search companies in the local corp-code index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sr := loadSearcher()
		if sr == nil {
			return fmt.Errorf("no corp-code index; run 'dartview codes download' first")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		listedOnly, _ := cmd.Flags().GetBool("listed")

		var results []corpcode.Company
		if listedOnly {
			results = sr.SearchListed(args[0], limit)
		} else {
			results = sr.SearchMerged(args[0], limit)
		}
		if len(results) == 0 {
			fmt.Printf("No companies matching %q\n", args[0])
			return nil
		}

		fmt.Printf("🔍 %d companies matching %q:\n\n", len(results), args[0])
		for _, c := range results {
			stock := "비상장"
			if c.Listed() {
				stock = c.StockCode
			}
			fmt.Printf("  %s  %-8s  %s\n", c.CorpCode, stock, c.CorpName)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 20, "maximum number of results")
	searchCmd.Flags().Bool("listed", false, "only listed companies")
}

// --- Company Command ---

var companyCmd = &cobra.Command{
	Use:   "company [corp-code|name]",
	Short: "Show a company profile (기업개황)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		corpCode, _, err := resolveCorpCode(args[0])
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		p, err := client.Company(ctx, corpCode)
		if err != nil {
			return err
		}

		fmt.Printf("🏢 %s (%s)\n\n", p.CorpName, p.CorpNameEng)
		fmt.Printf("  Corp Code:     %s\n", p.CorpCode)
		if p.Listed() {
			fmt.Printf("  Stock:         %s (%s)\n", p.StockCode, corpClassName(p.CorpClass))
		} else {
			fmt.Printf("  Stock:         비상장\n")
		}
		fmt.Printf("  CEO:           %s\n", p.CEOName)
		fmt.Printf("  Established:   %s\n", p.EstDate)
		fmt.Printf("  Fiscal Month:  %s월\n", p.AccMonth)
		fmt.Printf("  Address:       %s\n", p.Address)
		if p.HomeURL != "" {
			fmt.Printf("  Homepage:      %s\n", p.HomeURL)
		}
		return nil
	},
}

func corpClassName(cls string) string {
	switch cls {
	case "Y":
		return "KOSPI"
	case "K":
		return "KOSDAQ"
	case "N":
		return "KONEX"
	default:
		return "기타"
	}
}

// --- Disclosures Command ---

var disclosuresCmd = &cobra.Command{
	Use:   "disclosures [corp-code|name]",
	Short: "List recent disclosures (공시검색)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		corpCode, name, err := resolveCorpCode(args[0])
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}

		query := dart.DisclosureQuery{CorpCode: corpCode}
		query.BeginDate, _ = cmd.Flags().GetString("from")
		query.EndDate, _ = cmd.Flags().GetString("to")
		query.PublicType, _ = cmd.Flags().GetString("type")
		query.LastReportOnly, _ = cmd.Flags().GetBool("final")
		query.PageNo, _ = cmd.Flags().GetInt("page")
		query.PageCount, _ = cmd.Flags().GetInt("count")
		for _, d := range []string{query.BeginDate, query.EndDate} {
			if d != "" && !utils.IsYYYYMMDD(d) {
				return fmt.Errorf("dates must be YYYYMMDD, got %q", d)
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		list, err := client.Disclosures(ctx, query)
		if err != nil {
			return err
		}

		fmt.Printf("📋 %s — %d disclosures (page %d/%d)\n\n",
			name, list.TotalCount, list.PageNo, list.TotalPage)
		for _, d := range list.List {
			fmt.Printf("  %s  %-40s  %s\n", d.ReceiptDt, d.ReportName, d.ReceiptNo)
		}
		return nil
	},
}

func init() {
	disclosuresCmd.Flags().String("from", "", "begin date (YYYYMMDD)")
	disclosuresCmd.Flags().String("to", "", "end date (YYYYMMDD)")
	disclosuresCmd.Flags().String("type", "", "disclosure type (A: periodic, B: major, ...)")
	disclosuresCmd.Flags().Bool("final", false, "final reports only")
	disclosuresCmd.Flags().Int("page", 1, "page number")
	disclosuresCmd.Flags().Int("count", 20, "results per page (max 100)")
}

// --- Financials Command ---

// fetchParsed fetches and classifies one company-year of statements.
func fetchParsed(ctx context.Context, corpCode string, year int, reprtCode string) (*models.ParsedStatements, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	fs, err := client.FinancialStatements(ctx, corpCode, strconv.Itoa(year), reprtCode)
	if err != nil {
		return nil, err
	}
	parsed := fundamental.ParseStatements(fs)
	if parsed.Empty() {
		return nil, fmt.Errorf("no financial data for %s in %d", corpCode, year)
	}
	return parsed, nil
}

var financialsCmd = &cobra.Command{
	Use:   "financials [corp-code|name] [year]",
	Short: "Show key financial statement accounts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		corpCode, name, err := resolveCorpCode(args[0])
		if err != nil {
			return err
		}
		year, err := parseYear(args[1])
		if err != nil {
			return err
		}
		reprtCode, _ := cmd.Flags().GetString("report")

		parsed, err := fetchParsed(cmd.Context(), corpCode, year, reprtCode)
		if err != nil {
			return err
		}

		if reprtCode == "" {
			reprtCode = models.ReportAnnual
		}
		fmt.Printf("📊 %s — %d년 %s\n\n", name, year, models.ReportName(reprtCode))
		fmt.Printf("  %-20s %18s %18s\n", "계정", "당기", "전기")
		fmt.Printf("  %s\n", "──────────────────────────────────────────────────────────")
		for _, item := range parsed.Items {
			fmt.Printf("  %-20s %18s %18s\n",
				item.AccountName,
				utils.FormatKRWCompact(float64(item.CurrentYear.Amount)),
				utils.FormatKRWCompact(float64(item.PreviousYear.Amount)))
		}
		return nil
	},
}

func init() {
	financialsCmd.Flags().String("report", "", "report code (11011 annual, 11012 half, 11013 Q1, 11014 Q3)")
}

// --- Ratios Command ---

var ratiosCmd = &cobra.Command{
	Use:   "ratios [corp-code|name] [year]",
	Short: "Compute financial ratios from the statements",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		corpCode, name, err := resolveCorpCode(args[0])
		if err != nil {
			return err
		}
		year, err := parseYear(args[1])
		if err != nil {
			return err
		}

		parsed, err := fetchParsed(cmd.Context(), corpCode, year, "")
		if err != nil {
			return err
		}
		ratios := fundamental.ComputeRatios(parsed)

		fmt.Printf("📈 %s — %d년 재무비율\n", name, year)
		printRatioCategory("수익성", ratios.Profitability)
		printRatioCategory("안정성", ratios.Stability)
		printRatioCategory("성장성", ratios.Growth)
		printRatioCategory("활동성", ratios.Activity)
		return nil
	},
}

func printRatioCategory(title string, ratios map[string]models.RatioValue) {
	if len(ratios) == 0 {
		return
	}
	keys := make([]string, 0, len(ratios))
	for k := range ratios {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n  [%s]\n", title)
	for _, k := range keys {
		r := ratios[k]
		fmt.Printf("    %-24s %10.2f%s\n", r.Name, r.Value, r.Unit)
	}
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [corp-code|name] [year]",
	Short: "Generate AI commentary on the financial statements",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer := ai.NewAnalyzer(cfg.Gemini, time.Duration(cfg.Analysis.CacheTTL)*time.Second)
		if !analyzer.Enabled() {
			return fmt.Errorf("AI analysis is disabled: set GEMINI_API_KEY")
		}

		corpCode, name, err := resolveCorpCode(args[0])
		if err != nil {
			return err
		}
		year, err := parseYear(args[1])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 90*time.Second)
		defer cancel()

		if compare, _ := cmd.Flags().GetBool("compare"); compare {
			current, err := fetchParsed(ctx, corpCode, year, "")
			if err != nil {
				return err
			}
			previous, err := fetchParsed(ctx, corpCode, year-1, "")
			if err != nil {
				return err
			}

			fmt.Printf("🤖 Comparing %s (%d년 vs %d년)...\n\n", name, year, year-1)
			text, err := analyzer.AnalyzeComparison(ctx, ai.ComparisonRequest{
				CorpCode:    corpCode,
				CompanyName: name,
				Year:        year,
				Current:     current,
				Previous:    previous,
			})
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		}

		parsed, err := fetchParsed(ctx, corpCode, year, "")
		if err != nil {
			return err
		}
		ratios := fundamental.ComputeRatios(parsed)

		fmt.Printf("🤖 Analyzing %s (%d년)...\n\n", name, year)
		text, err := analyzer.AnalyzeStatements(ctx, ai.AnalysisRequest{
			CorpCode:    corpCode,
			CompanyName: name,
			Year:        year,
			Statements:  parsed,
			Ratios:      &ratios,
		})
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Bool("compare", false, "compare against the previous year instead of analyzing one year")
}

// --- Codes Command ---

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Manage the corp-code index",
}

var codesDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the corp-code archive and rebuild the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		fmt.Printf("⬇️  Downloading corp-code archive to %s...\n", cfg.Codes.ArchivePath)
		if err := client.DownloadCorpCodes(ctx, cfg.Codes.ArchivePath); err != nil {
			return err
		}
		return convertCodes()
	},
}

var codesConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert an already-downloaded archive to the JSON index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return convertCodes()
	},
}

func convertCodes() error {
	companies, err := corpcode.ExtractArchive(cfg.Codes.ArchivePath)
	if err != nil {
		return err
	}
	if err := corpcode.WriteIndex(cfg.Codes.IndexPath, companies, "CORPCODE.xml"); err != nil {
		return err
	}
	fmt.Printf("✅ Indexed %d companies (%d listed) → %s\n",
		len(companies), corpcode.CountListed(companies), cfg.Codes.IndexPath)
	return nil
}

func init() {
	codesCmd.AddCommand(codesDownloadCmd)
	codesCmd.AddCommand(codesConvertCmd)
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}
		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			srv.SetServeUI(false)
		}

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.API.Port
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, port)

		fmt.Printf("🌐 DARTView server listening on http://%s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (overrides config)")
	serveCmd.Flags().Bool("no-ui", false, "serve API only, no embedded web UI")
}
