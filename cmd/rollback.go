package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lophius/screenkeep/core/audit"
)

var rollbackHours int

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Undo recent screenshot moves",
	Long: `Move recently organized screenshots back to their original
locations. Only successful moves within the time window are undone;
files the user has since moved or deleted are skipped.`,
	RunE: runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
	rollbackCmd.Flags().IntVar(&rollbackHours, "hours", 24, "Undo moves from the last N hours")
}

func runRollback(cmd *cobra.Command, args []string) error {
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

	count, err := audit.NewLog(pool, nil).Rollback(ctx, rollbackHours)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d move(s) from the last %d hour(s)\n",
		count, rollbackHours)
	return nil
}
