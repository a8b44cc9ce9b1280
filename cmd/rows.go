package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/medflow-cli/internal/record"
)

var (
	rowsLimit      int
	rowsOutputPath string
	rowsFilter     filterFlags
)

var rowsCmd = &cobra.Command{
	Use:   "rows <file|->",
	Short: "Preview the normalized rows as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if rowsLimit < 0 {
			return errors.New("--limit must be >= 0")
		}
		_, rows, err := loadRows(cmd, args[0], &rowsFilter)
		if err != nil {
			return err
		}
		if rowsLimit > 0 && rowsLimit < len(rows) {
			rows = rows[:rowsLimit]
		}
		if rows == nil {
			rows = []record.Row{}
		}
		return writeJSON(cmd, rowsOutputPath, rows)
	},
}

func init() {
	rootCmd.AddCommand(rowsCmd)
	rowsCmd.Flags().IntVarP(&rowsLimit, "limit", "n", 10, "max rows to print (0 prints all)")
	rowsCmd.Flags().StringVarP(&rowsOutputPath, "output", "o", "", "write to file instead of stdout")
	rowsFilter.bind(rowsCmd)
}
