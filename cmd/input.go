package cmd

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/medflow-cli/internal/filter"
	"github.com/KaramelBytes/medflow-cli/internal/parser"
	"github.com/KaramelBytes/medflow-cli/internal/record"
	"github.com/KaramelBytes/medflow-cli/internal/utils"
)

// readInput parses a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (*parser.Result, error) {
	if path == "-" {
		return parser.ParseReader(cmd.InOrStdin(), "")
	}
	res, err := parser.ParseFile(path)
	if err != nil {
		return nil, errors.WithHint(err, "supported inputs: .json, .csv, .txt, .xlsx or - for stdin")
	}
	return res, nil
}

// filterFlags binds the row filter to a command's flags.
type filterFlags struct {
	suppliers  []string
	customers  []string
	categories []string
	license    string
	model      string
	lot        string
	serial     string
	dateMin    string
	dateMax    string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringSliceVar(&f.suppliers, "supplier", nil, "keep only these suppliers (repeatable or comma-separated)")
	fl.StringSliceVar(&f.customers, "customer", nil, "keep only these customers")
	fl.StringSliceVar(&f.categories, "category", nil, "keep only these categories")
	fl.StringVar(&f.license, "license", "", "license number substring (case-insensitive)")
	fl.StringVar(&f.model, "device-model", "", "device model substring (case-insensitive)")
	fl.StringVar(&f.lot, "lot", "", "lot number substring (case-insensitive)")
	fl.StringVar(&f.serial, "serial", "", "serial number substring (case-insensitive)")
	fl.StringVar(&f.dateMin, "from", "", "earliest delivery date, inclusive (YYYY-MM-DD)")
	fl.StringVar(&f.dateMax, "to", "", "latest delivery date, inclusive (YYYY-MM-DD)")
}

func (f *filterFlags) criteria() (filter.Criteria, error) {
	c := filter.Criteria{
		Suppliers:  filter.SplitList(f.suppliers),
		Customers:  filter.SplitList(f.customers),
		Categories: filter.SplitList(f.categories),
		License:    strings.TrimSpace(f.license),
		Model:      strings.TrimSpace(f.model),
		Lot:        strings.TrimSpace(f.lot),
		Serial:     strings.TrimSpace(f.serial),
	}
	var err error
	if c.DateMin, err = parseDateFlag("from", f.dateMin); err != nil {
		return filter.Criteria{}, err
	}
	if c.DateMax, err = parseDateFlag("to", f.dateMax); err != nil {
		return filter.Criteria{}, err
	}
	return c, nil
}

// apply filters rows by the bound flags.
func (f *filterFlags) apply(rows []record.Row) ([]record.Row, error) {
	c, err := f.criteria()
	if err != nil {
		return nil, err
	}
	return filter.Apply(rows, c), nil
}

func parseDateFlag(name, v string) (*record.Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, ok := record.ParseISODate(v)
	if !ok {
		return nil, errors.Newf("invalid --%s: %q (use YYYY-MM-DD or YYYYMMDD)", name, v)
	}
	return &d, nil
}

// loadRows reads the input argument and applies the filter flags.
func loadRows(cmd *cobra.Command, path string, f *filterFlags) (*parser.Result, []record.Row, error) {
	res, err := readInput(cmd, path)
	if err != nil {
		return nil, nil, err
	}
	rows, err := f.apply(res.Rows)
	if err != nil {
		return nil, nil, err
	}
	return res, rows, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if err := utils.WriteOutput(cmd.OutOrStdout(), path, data); err != nil {
		return err
	}
	if path != "" && path != "-" {
		cmd.PrintErrf("✓ Wrote %s\n", path)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, path string, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	return writeOutput(cmd, path, b)
}
