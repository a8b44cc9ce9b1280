package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders the summary as a compact, prompt-friendly report.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Total units: %d\n", s.TotalUnits))
	b.WriteString(fmt.Sprintf("Unique: suppliers %d, customers %d, categories %d\n",
		s.Unique.Suppliers, s.Unique.Customers, s.Unique.Categories))
	if s.DateRange.Min != nil && s.DateRange.Max != nil {
		b.WriteString(fmt.Sprintf("Date range: %s to %s\n", s.DateRange.Min, s.DateRange.Max))
	} else {
		b.WriteString("Date range: n/a\n")
	}

	writeTop(&b, "TOP SUPPLIERS", s.TopSuppliers)
	writeTop(&b, "TOP CUSTOMERS", s.TopCustomers)
	writeTop(&b, "TOP CATEGORIES", s.TopCategories)
	writeTop(&b, "TOP MODELS", s.TopModels)
	writeTop(&b, "TOP LICENSES", s.TopLicenses)

	if len(s.DailyTrend) > 0 {
		b.WriteString("\n[DAILY TREND]\n")
		for _, p := range s.DailyTrend {
			b.WriteString(fmt.Sprintf("- %s: %d units, %d orders\n", p.Date, p.Units, p.Orders))
		}
	}
	if len(s.SampleRows) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n")
		b.WriteString("| Supplier | Customer | Category | Model | Qty | Date |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, r := range s.SampleRows {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s |\n",
				cell(r.SupplierID), cell(r.CustomerID), cell(r.Category), cell(r.Model), r.Quantity, cell(r.DeliveryDateRaw)))
		}
	}
	return b.String()
}

func writeTop(b *strings.Builder, title string, entries []TopEntry) {
	if len(entries) == 0 {
		return
	}
	b.WriteString("\n[" + title + "]\n")
	for i, e := range entries {
		b.WriteString(fmt.Sprintf("%d. %s: %d\n", i+1, cell(e.Key), e.Units))
	}
}

func cell(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
