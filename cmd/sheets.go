package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/sheetmark-cli/internal/sheet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sheetsName      string
	sheetsIndex     int
	sheetsDelimiter string
	sheetsRows      int
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets <file>",
	Short: "List the worksheets of a file and preview the selected one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		out := cmd.OutOrStdout()

		names, err := sheet.List(path)
		if err != nil {
			return err
		}
		if len(names) > 1 {
			fmt.Fprintf(out, "Found %d worksheets; pick one with --sheet-name or --sheet-index.\n", len(names))
		}
		for i, n := range names {
			fmt.Fprintf(out, "%d. %s\n", i+1, n)
		}

		sel, err := buildSelection(cmd, sheetsName, sheetsIndex, sheetsDelimiter)
		if err != nil {
			return err
		}
		s, err := sheet.Load(path, sel)
		if err != nil {
			return err
		}
		logger.Debug("sheet loaded", zap.String("file", path), zap.String("sheet", s.Name), zap.Int("rows", s.Data.Len()))

		n := cfg.PreviewRows
		if cmd.Flags().Changed("rows") {
			n = sheetsRows
		}
		fmt.Fprintf(out, "\nSheet %s: %d rows\n", s.Name, s.Data.Len())
		fmt.Fprintf(out, "Columns: %s\n\n", strings.Join(s.Data.Columns, ", "))
		fmt.Fprint(out, sheet.Markdown(s.Data, n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd)
	sheetsCmd.Flags().StringVar(&sheetsName, "sheet-name", "", "worksheet to preview (xlsx)")
	sheetsCmd.Flags().IntVar(&sheetsIndex, "sheet-index", 0, "1-based worksheet index to preview (xlsx)")
	sheetsCmd.Flags().StringVar(&sheetsDelimiter, "delimiter", "", "CSV delimiter: ',', ';', '|' or 'tab'")
	sheetsCmd.Flags().IntVar(&sheetsRows, "rows", 0, "rows to preview (0 for all; default from config)")
}
