package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lophius/screenkeep/core/search"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one indexed screenshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
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

	rec, ok := search.NewEngine(pool, nil).GetByID(ctx, id)
	if !ok {
		return fmt.Errorf("screenshot %d not found", id)
	}

	out := cmd.OutOrStdout()
	if showJSON {
		return json.NewEncoder(out).Encode(toRecordJSON(*rec))
	}

	fmt.Fprintf(out, "ID:          %d\n", rec.ID)
	fmt.Fprintf(out, "File:        %s (was %s)\n", rec.CurrentFilename, rec.OriginalFilename)
	fmt.Fprintf(out, "Path:        %s\n", rec.Path)
	fmt.Fprintf(out, "Category:    %s\n", rec.Category)
	fmt.Fprintf(out, "Confidence:  %.2f\n", rec.Confidence)
	fmt.Fprintf(out, "Created:     %s\n", rec.CreatedDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Processed:   %s\n", rec.ProcessedDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Size:        %dx%d %s, %d bytes\n", rec.Width, rec.Height, rec.Format, rec.SizeBytes)
	if len(rec.Keywords) > 0 {
		fmt.Fprintf(out, "Keywords:    %s\n", strings.Join(rec.Keywords, ", "))
	}
	if len(rec.Tags) > 0 {
		fmt.Fprintf(out, "Tags:        %s\n", strings.Join(rec.Tags, ", "))
	}
	if rec.VisionDescription != "" {
		fmt.Fprintf(out, "Description: %s\n", rec.VisionDescription)
	}
	if rec.OCRText != "" {
		fmt.Fprintf(out, "\nOCR text:\n%s\n", rec.OCRText)
	}
	return nil
}
