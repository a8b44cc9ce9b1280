package analysis

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
)

// RenderTable writes the summary as terminal tables.
func RenderTable(w io.Writer, s *Summary) error {
	dateRange := "n/a"
	if s.DateRange.Min != nil && s.DateRange.Max != nil {
		dateRange = fmt.Sprintf("%s to %s", s.DateRange.Min, s.DateRange.Max)
	}
	overview := pterm.TableData{
		{"Metric", "Value"},
		{"Rows", strconv.Itoa(s.Rows)},
		{"Total units", strconv.FormatInt(s.TotalUnits, 10)},
		{"Suppliers", strconv.Itoa(s.Unique.Suppliers)},
		{"Customers", strconv.Itoa(s.Unique.Customers)},
		{"Categories", strconv.Itoa(s.Unique.Categories)},
		{"Date range", dateRange},
	}
	if err := writeTable(w, "Overview", overview); err != nil {
		return err
	}
	for _, sec := range []struct {
		title   string
		entries []TopEntry
	}{
		{"Top suppliers", s.TopSuppliers},
		{"Top customers", s.TopCustomers},
		{"Top categories", s.TopCategories},
		{"Top models", s.TopModels},
		{"Top licenses", s.TopLicenses},
	} {
		if len(sec.entries) == 0 {
			continue
		}
		data := pterm.TableData{{"#", "Key", "Units"}}
		for i, e := range sec.entries {
			data = append(data, []string{strconv.Itoa(i + 1), e.Key, strconv.FormatInt(e.Units, 10)})
		}
		if err := writeTable(w, sec.title, data); err != nil {
			return err
		}
	}
	if len(s.DailyTrend) > 0 {
		data := pterm.TableData{{"Date", "Units", "Orders"}}
		for _, p := range s.DailyTrend {
			data = append(data, []string{p.Date, strconv.FormatInt(p.Units, 10), strconv.Itoa(p.Orders)})
		}
		if err := writeTable(w, "Daily trend", data); err != nil {
			return err
		}
	}
	return nil
}

// writeTable renders one titled pterm table with a header row.
func writeTable(w io.Writer, title string, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render %s table: %w", title, err)
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n\n", title, out)
	return err
}
