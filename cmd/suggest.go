package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lophius/screenkeep/core/search"
)

var suggestLimit int

var suggestCmd = &cobra.Command{
	Use:   "suggest <prefix>",
	Short: "Suggest search terms for a prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().IntVarP(&suggestLimit, "limit", "l", search.DefaultSuggestionLimit, "Maximum suggestions")
}

func runSuggest(cmd *cobra.Command, args []string) error {
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

	for _, term := range search.NewEngine(pool, nil).Suggestions(ctx, args[0], suggestLimit) {
		fmt.Fprintln(cmd.OutOrStdout(), term)
	}
	return nil
}
