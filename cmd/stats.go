package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lophius/screenkeep/core/search"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
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

	stats := search.NewEngine(pool, nil).Stats(ctx)
	out := cmd.OutOrStdout()

	if statsJSON {
		return json.NewEncoder(out).Encode(stats)
	}

	fmt.Fprintf(out, "Total screenshots: %d\n", stats.Total)
	fmt.Fprintf(out, "Average confidence: %.2f\n\n", stats.AvgConfidence)

	if len(stats.ByCategory) > 0 {
		fmt.Fprintln(out, "By category:")
		for _, category := range sortedKeys(stats.ByCategory) {
			fmt.Fprintf(out, "  %-15s %d\n", category, stats.ByCategory[category])
		}
	}

	if len(stats.ByDay) > 0 {
		fmt.Fprintln(out, "\nLast 30 days:")
		days := sortedKeys(stats.ByDay)
		sort.Sort(sort.Reverse(sort.StringSlice(days)))
		for _, day := range days {
			fmt.Fprintf(out, "  %s  %d\n", day, stats.ByDay[day])
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
