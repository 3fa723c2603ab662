package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lophius/screenkeep/core/store"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from stored records",
	Long: `Discard all derived search rows and recompute them from the
screenshot records. Run this after updating keywords or categories to
refresh search results.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
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

	count, err := store.New(pool).RebuildIndex(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reindexed %d screenshot(s)\n", count)
	return nil
}
