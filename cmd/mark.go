package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/KaramelBytes/sheetmark-cli/internal/annotate"
	"github.com/KaramelBytes/sheetmark-cli/internal/rules"
	"github.com/KaramelBytes/sheetmark-cli/internal/sheet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	markColumn           string
	markKeywords         []string
	markKeywordsFile     string
	markLabel            string
	markLabelFromKeyword bool
	markCaseSensitive    bool
	markWholeCell        bool
	markSheetName        string
	markSheetIndex       int
	markDelimiter        string
	markOutput           string
	markPreview          bool
	markPreset           string
)

var markCmd = &cobra.Command{
	Use:   "mark <file>",
	Short: "Label rows whose column matches keywords and move them to the top",
	Long: `Searches --column for any of the keywords (one per --keyword, or one per
line in --keywords-file). A * in a keyword matches any run of characters; a
keyword that is only * matches a literal asterisk. Matching rows get --label
in the 備註欄 column and are moved above the others, keeping their order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		out := cmd.OutOrStdout()

		rule, err := buildRule(cmd)
		if err != nil {
			return err
		}
		sel, err := buildSelection(cmd, markSheetName, markSheetIndex, markDelimiter)
		if err != nil {
			return err
		}

		start := time.Now()
		s, err := sheet.Load(input, sel)
		if err != nil {
			return err
		}
		logger.Debug("sheet loaded",
			zap.String("file", input),
			zap.String("sheet", s.Name),
			zap.Int("rows", s.Data.Len()),
			zap.Strings("columns", s.Data.Columns))
		if markPreview {
			printPreview(out, "Input", s)
		}

		res, err := annotate.Run(s.Data, rule.Request())
		if err != nil {
			return err
		}
		logger.Debug("rows marked",
			zap.String("column", rule.Column),
			zap.Strings("patterns", rule.Patterns),
			zap.Int("matched", res.Count),
			zap.Duration("elapsed", time.Since(start)))

		dest := markOutput
		if dest == "" {
			dest = sheet.OutputPath(input, cfg.OutputSuffix)
		}
		result := &sheet.Sheet{Name: s.Name, Data: res.Dataset}
		if err := sheet.Save(dest, result); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		logger.Debug("output written", zap.String("file", dest))

		if markPreview {
			printPreview(out, "Output", result)
		}
		if res.Count == 0 {
			logger.Warn("no rows matched", zap.String("column", rule.Column), zap.Strings("patterns", rule.Patterns))
		}
		fmt.Fprintf(out, "✓ Done: found and labelled %d matching rows\n", res.Count)
		fmt.Fprintf(out, "✓ Wrote %s\n", dest)
		return nil
	},
}

// buildRule merges the preset (if any), config defaults and flags into a
// validated rule. Flags win over the preset.
func buildRule(cmd *cobra.Command) (rules.Rule, error) {
	var rule rules.Rule
	if markPreset != "" {
		p, err := rules.NewStore(cfg.PresetsDir).Load(markPreset)
		if err != nil {
			return rules.Rule{}, err
		}
		rule = p.Rule
		logger.Debug("preset loaded", zap.String("preset", p.Name), zap.String("id", p.ID))
	} else {
		rule.Label = cfg.DefaultLabel
		rule.CaseSensitive = cfg.CaseSensitive
		rule.WholeCell = cfg.WholeCell
	}

	f := cmd.Flags()
	if f.Changed("column") {
		rule.Column = markColumn
	}
	keywords, err := collectKeywords(markKeywords, markKeywordsFile)
	if err != nil {
		return rules.Rule{}, err
	}
	if len(keywords) > 0 {
		rule.Patterns = keywords
	}
	if f.Changed("label") {
		rule.Label = markLabel
	}
	if f.Changed("case-sensitive") {
		rule.CaseSensitive = markCaseSensitive
	}
	if f.Changed("whole-cell") {
		rule.WholeCell = markWholeCell
	}

	rule = rule.Normalize()
	if markLabelFromKeyword && !f.Changed("label") {
		if len(rule.Patterns) != 1 {
			return rules.Rule{}, fmt.Errorf("--label-from-keyword needs exactly one keyword, got %d", len(rule.Patterns))
		}
		rule.Label = rule.Patterns[0]
	}
	if err := rule.Validate(); err != nil {
		return rules.Rule{}, err
	}
	return rule, nil
}

// collectKeywords joins --keyword values and the lines of --keywords-file
// ("-" reads stdin).
func collectKeywords(flagValues []string, file string) ([]string, error) {
	var keywords []string
	for _, k := range flagValues {
		keywords = append(keywords, rules.ParseKeywords(k)...)
	}
	if file == "" {
		return keywords, nil
	}
	var (
		b   []byte
		err error
	)
	if file == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("read keywords: %w", err)
	}
	return append(keywords, rules.ParseKeywords(string(b))...), nil
}

// buildSelection resolves sheet and delimiter flags against the config.
func buildSelection(cmd *cobra.Command, name string, index int, delim string) (sheet.Selection, error) {
	sel := sheet.Selection{Name: name, Index: cfg.SheetIndex, Delimiter: cfg.Delimiter()}
	if cmd.Flags().Changed("sheet-index") {
		if index < 1 {
			return sheet.Selection{}, fmt.Errorf("--sheet-index is 1-based, got %d", index)
		}
		sel.Index = index
	}
	if delim != "" {
		switch delim {
		case ",":
			sel.Delimiter = ','
		case "\t", `\t`, "tab":
			sel.Delimiter = '\t'
		case ";":
			sel.Delimiter = ';'
		case "|":
			sel.Delimiter = '|'
		default:
			return sheet.Selection{}, fmt.Errorf("unsupported --delimiter: %s", delim)
		}
	}
	return sel, nil
}

func printPreview(w io.Writer, title string, s *sheet.Sheet) {
	fmt.Fprintf(w, "%s preview (%s, %d rows):\n", title, s.Name, s.Data.Len())
	fmt.Fprint(w, sheet.Markdown(s.Data, cfg.PreviewRows))
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(markCmd)
	f := markCmd.Flags()
	f.StringVarP(&markColumn, "column", "c", "", "column to search")
	f.StringArrayVarP(&markKeywords, "keyword", "k", nil, "keyword to look for; repeat for more (* is a wildcard)")
	f.StringVar(&markKeywordsFile, "keywords-file", "", "file with one keyword per line (- for stdin)")
	f.StringVarP(&markLabel, "label", "l", "", "text written into 備註欄 for matching rows")
	f.BoolVar(&markLabelFromKeyword, "label-from-keyword", false, "use the single keyword as the label")
	f.BoolVar(&markCaseSensitive, "case-sensitive", false, "match letter case exactly")
	f.BoolVar(&markWholeCell, "whole-cell", false, "keywords must match the entire cell")
	f.StringVar(&markSheetName, "sheet-name", "", "worksheet name (xlsx)")
	f.IntVar(&markSheetIndex, "sheet-index", 0, "1-based worksheet index (xlsx)")
	f.StringVar(&markDelimiter, "delimiter", "", "CSV delimiter: ',', ';', '|' or 'tab'")
	f.StringVarP(&markOutput, "output", "o", "", "output file (default <input>_processed.<ext>)")
	f.BoolVar(&markPreview, "preview", false, "print the first rows before and after marking")
	f.StringVar(&markPreset, "preset", "", "load column, keywords and label from a saved preset")
}
