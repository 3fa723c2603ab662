package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lophius/screenkeep/core/search"
	"github.com/lophius/screenkeep/core/store"
)

// =============================================================================
// Search Command Flags
// =============================================================================

var (
	searchCategory   string
	searchTags       []string
	searchDateFrom   string
	searchDateTo     string
	searchConfidence float64
	searchLimit      int
	searchFullText   bool
	searchAdvanced   bool
	searchJSON       bool
)

// =============================================================================
// Search Command
// =============================================================================

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed screenshots",
	Long: `Search indexed screenshots.

Examples:
  screenkeep search "database timeout"
  screenkeep search --category ERROR --tag urgent
  screenkeep search --full-text "connection refused"
  screenkeep search --advanced "category:ERROR date:2026-08-01..2026-08-07 timeout"
  screenkeep search --json "deploy" | jq '.[].path'`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchCategory, "category", "", "Filter by category (ERROR, CODE, UI, ...)")
	searchCmd.Flags().StringArrayVar(&searchTags, "tag", nil, "Filter by tag (repeatable)")
	searchCmd.Flags().StringVar(&searchDateFrom, "from", "", "Created on or after date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchDateTo, "to", "", "Created on or before date (YYYY-MM-DD)")
	searchCmd.Flags().Float64Var(&searchConfidence, "min-confidence", 0, "Minimum classification confidence")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchFullText, "full-text", false, "Relevance-ranked full-text search")
	searchCmd.Flags().BoolVar(&searchAdvanced, "advanced", false, "Parse query string filters (category:/tag:/date:)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output results as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	engine := search.NewEngine(pool, nil)
	query := strings.Join(args, " ")

	switch {
	case searchFullText:
		results := engine.FullTextSearch(ctx, query, searchLimit)
		return printFullTextResults(cmd, results)

	case searchAdvanced:
		results := engine.AdvancedSearch(ctx, query)
		return printResults(cmd, results)

	default:
		q := search.Query{
			Text:          query,
			Category:      searchCategory,
			Tags:          searchTags,
			MinConfidence: searchConfidence,
			Limit:         searchLimit,
		}
		if q.DateFrom, err = parseDateFlag(searchDateFrom); err != nil {
			return err
		}
		if q.DateTo, err = parseDateFlag(searchDateTo); err != nil {
			return err
		}
		results := engine.Search(ctx, q)
		return printResults(cmd, results)
	}
}

func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", value)
	}
	return &t, nil
}

// =============================================================================
// Output
// =============================================================================

func printResults(cmd *cobra.Command, results []store.Screenshot) error {
	out := cmd.OutOrStdout()

	if searchJSON {
		return json.NewEncoder(out).Encode(resultsJSON(results))
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No results.")
		return nil
	}

	for _, rec := range results {
		fmt.Fprintf(out, "[%d] %s\n", rec.ID, rec.CurrentFilename)
		fmt.Fprintf(out, "    %s | %.2f | %s\n",
			rec.Category, rec.Confidence, rec.CreatedDate.Format("2006-01-02"))
		if len(rec.Keywords) > 0 {
			fmt.Fprintf(out, "    keywords: %s\n", strings.Join(rec.Keywords, ", "))
		}
		fmt.Fprintf(out, "    %s\n\n", rec.Path)
	}
	fmt.Fprintf(out, "%d result(s)\n", len(results))
	return nil
}

func printFullTextResults(cmd *cobra.Command, results []search.Result) error {
	out := cmd.OutOrStdout()

	if searchJSON {
		type scored struct {
			recordJSON
			Relevance float64 `json:"relevance"`
		}
		encoded := make([]scored, len(results))
		for i, r := range results {
			encoded[i] = scored{recordJSON: toRecordJSON(r.Screenshot), Relevance: r.Relevance}
		}
		return json.NewEncoder(out).Encode(encoded)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No results.")
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(out, "[%d] %s (relevance %.1f)\n", r.ID, r.CurrentFilename, r.Relevance)
		fmt.Fprintf(out, "    %s | %s\n\n", r.Category, r.Path)
	}
	fmt.Fprintf(out, "%d result(s)\n", len(results))
	return nil
}

// recordJSON is the stable CLI JSON shape for a screenshot record.
type recordJSON struct {
	ID          int64    `json:"id"`
	Filename    string   `json:"filename"`
	Path        string   `json:"path"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords"`
	Tags        []string `json:"tags"`
	Confidence  float64  `json:"confidence"`
	CreatedDate string   `json:"created_date"`
	Description string   `json:"description,omitempty"`
}

func toRecordJSON(rec store.Screenshot) recordJSON {
	return recordJSON{
		ID:          rec.ID,
		Filename:    rec.CurrentFilename,
		Path:        rec.Path,
		Category:    string(rec.Category),
		Keywords:    rec.Keywords,
		Tags:        rec.Tags,
		Confidence:  rec.Confidence,
		CreatedDate: rec.CreatedDate.Format(time.RFC3339),
		Description: rec.VisionDescription,
	}
}

func resultsJSON(results []store.Screenshot) []recordJSON {
	encoded := make([]recordJSON, len(results))
	for i, rec := range results {
		encoded[i] = toRecordJSON(rec)
	}
	return encoded
}
