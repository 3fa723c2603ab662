package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lophius/screenkeep/core/audit"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent file operations",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum entries")
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	entries, err := audit.NewLog(pool, nil).History(ctx, historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No operations recorded.")
		return nil
	}

	for _, entry := range entries {
		fmt.Fprintf(out, "%s  %-6s  %-11s  %s -> %s\n",
			entry.Timestamp.Format("2006-01-02 15:04"),
			entry.Operation, entry.Status,
			entry.OldFilename, entry.NewFilename)
		if entry.ErrorMessage != "" {
			fmt.Fprintf(out, "    error: %s\n", entry.ErrorMessage)
		}
	}
	return nil
}
