package cmd

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/medflow-cli/internal/quality"
)

var (
	qualFormat     string
	qualOutputPath string
	qualFilter     filterFlags
)

var qualityCmd = &cobra.Command{
	Use:   "quality <file|->",
	Short: "Report invalid dates, non-positive quantities and unresolved headers",
	Long: `Report data problems in the rows that pass the filter flags. Header
mappings always describe the whole file.`,
	Example: `  medflow quality deliveries.xlsx
  medflow quality deliveries.csv --supplier Medline --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, rows, err := loadRows(cmd, args[0], &qualFilter)
		if err != nil {
			return err
		}
		rep := quality.Check(res.Headers, rows)
		if n := len(rep.Unresolved()); n > 0 {
			cmd.PrintErrf("⚠ Warning: %d header(s) did not map to a known field: %s\n",
				n, strings.Join(rep.Unresolved(), ", "))
		}
		switch strings.ToLower(qualFormat) {
		case "", "json":
			return writeJSON(cmd, qualOutputPath, rep)
		case "markdown", "md":
			return writeOutput(cmd, qualOutputPath, []byte(rep.Markdown()))
		case "table":
			var buf bytes.Buffer
			if err := rep.RenderTable(&buf); err != nil {
				return err
			}
			return writeOutput(cmd, qualOutputPath, buf.Bytes())
		default:
			return errors.Newf("unsupported --format: %s (use json|markdown|table)", qualFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(qualityCmd)
	qualityCmd.Flags().StringVar(&qualFormat, "format", "table", "output format: json|markdown|table")
	qualityCmd.Flags().StringVarP(&qualOutputPath, "output", "o", "", "write to file instead of stdout")
	qualFilter.bind(qualityCmd)
}
