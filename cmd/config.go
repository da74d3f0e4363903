package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/sheetmark-cli/internal/config"
	"github.com/KaramelBytes/sheetmark-cli/internal/utils"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set SheetMark configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "default_label: %s\n", cfg.DefaultLabel)
		fmt.Fprintf(out, "case_sensitive: %t\n", cfg.CaseSensitive)
		fmt.Fprintf(out, "whole_cell: %t\n", cfg.WholeCell)
		fmt.Fprintf(out, "output_suffix: %s\n", cfg.OutputSuffix)
		fmt.Fprintf(out, "preview_rows: %d\n", cfg.PreviewRows)
		fmt.Fprintf(out, "sheet_index: %d\n", cfg.SheetIndex)
		if cfg.CSVDelimiter != "" {
			fmt.Fprintf(out, "csv_delimiter: %q\n", cfg.CSVDelimiter)
		} else {
			fmt.Fprintln(out, "csv_delimiter: (auto)")
		}
		fmt.Fprintf(out, "presets_dir: %s\n", cfg.PresetsDir)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "default_label":
			cfg.DefaultLabel = val
		case "case_sensitive":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for case_sensitive: %v", val)
			}
			cfg.CaseSensitive = b
		case "whole_cell":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for whole_cell: %v", val)
			}
			cfg.WholeCell = b
		case "output_suffix":
			if val == "" {
				return fmt.Errorf("output_suffix cannot be empty: the input file would be overwritten")
			}
			cfg.OutputSuffix = val
		case "preview_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for preview_rows: %v", val)
			}
			cfg.PreviewRows = i
		case "sheet_index":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid 1-based index for sheet_index: %v", val)
			}
			cfg.SheetIndex = i
		case "csv_delimiter":
			if val == "tab" {
				val = `\t`
			}
			if len([]rune(val)) > 1 && val != `\t` {
				return fmt.Errorf("csv_delimiter must be a single character or 'tab', got %q", val)
			}
			cfg.CSVDelimiter = val
		case "presets_dir":
			dir, err := utils.ExpandHome(val)
			if err != nil {
				return err
			}
			cfg.PresetsDir = dir
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
