package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lophius/screenkeep/core/store"
)

var (
	updateCategory string
	updateKeywords []string
	updateTags     []string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Correct a screenshot's category, keywords, or tags",
	Long: `Apply a manual correction to an indexed screenshot. Only the
supplied fields change. Search terms are refreshed on the next
reindex; run "screenkeep reindex" for corrections to affect search.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVar(&updateCategory, "category", "", "New category")
	updateCmd.Flags().StringArrayVar(&updateKeywords, "keyword", nil, "Replacement keywords (repeatable)")
	updateCmd.Flags().StringArrayVar(&updateTags, "tag", nil, "Replacement tags (repeatable)")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}

	var params store.UpdateParams
	if updateCategory != "" {
		category, err := store.ParseCategory(updateCategory)
		if err != nil {
			return err
		}
		params.Category = &category
	}
	if updateKeywords != nil {
		params.Keywords = updateKeywords
	}
	if updateTags != nil {
		params.Tags = updateTags
	}

	if params.Category == nil && params.Keywords == nil && params.Tags == nil {
		return fmt.Errorf("nothing to update: pass --category, --keyword, or --tag")
	}

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

	if err := store.New(pool).Update(ctx, id, params); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated screenshot %d\n", id)
	return nil
}
