package cmd

import (
	"fmt"

	"github.com/KaramelBytes/sheetmark-cli/internal/rules"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	presetColumn        string
	presetKeywords      []string
	presetKeywordsFile  string
	presetLabel         string
	presetDescription   string
	presetCaseSensitive bool
	presetWholeCell     bool
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage saved marking presets",
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save column, keywords and label under a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keywords, err := collectKeywords(presetKeywords, presetKeywordsFile)
		if err != nil {
			return err
		}
		label := presetLabel
		if !cmd.Flags().Changed("label") {
			label = cfg.DefaultLabel
		}
		p := &rules.Preset{
			Name:        args[0],
			Description: presetDescription,
			Rule: rules.Rule{
				Column:        presetColumn,
				Patterns:      keywords,
				Label:         label,
				CaseSensitive: presetCaseSensitive,
				WholeCell:     presetWholeCell,
			},
		}
		if err := rules.NewStore(cfg.PresetsDir).Save(p); err != nil {
			return err
		}
		logger.Debug("preset saved", zap.String("preset", p.Name), zap.String("id", p.ID))
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved preset %s (%d keywords)\n", p.Name, len(p.Rule.Patterns))
		return nil
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := rules.NewStore(cfg.PresetsDir).List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "(no presets)")
			return nil
		}
		for _, p := range list {
			fmt.Fprintf(out, "- %s: column %q, %d keywords, label %q", p.Name, p.Rule.Column, len(p.Rule.Patterns), p.Rule.Label)
			if p.Description != "" {
				fmt.Fprintf(out, " (%s)", p.Description)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a preset as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := rules.NewStore(cfg.PresetsDir).Load(args[0])
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal preset: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var presetRmCmd = &cobra.Command{
	Use:     "rm <name>",
	Aliases: []string{"delete"},
	Short:   "Delete a preset",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := rules.NewStore(cfg.PresetsDir).Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted preset %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetSaveCmd, presetListCmd, presetShowCmd, presetRmCmd)

	f := presetSaveCmd.Flags()
	f.StringVarP(&presetColumn, "column", "c", "", "column to search")
	f.StringArrayVarP(&presetKeywords, "keyword", "k", nil, "keyword; repeat for more (* is a wildcard)")
	f.StringVar(&presetKeywordsFile, "keywords-file", "", "file with one keyword per line (- for stdin)")
	f.StringVarP(&presetLabel, "label", "l", "", "text written into 備註欄 for matching rows")
	f.StringVarP(&presetDescription, "description", "d", "", "short note shown by preset list")
	f.BoolVar(&presetCaseSensitive, "case-sensitive", false, "match letter case exactly")
	f.BoolVar(&presetWholeCell, "whole-cell", false, "keywords must match the entire cell")
}
