// Package quality surfaces the data problems the parser degrades silently:
// undated rows, non-positive quantities, missing keys and unmapped headers.
package quality

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/KaramelBytes/medflow-cli/internal/parser"
	"github.com/KaramelBytes/medflow-cli/internal/record"
)

// Report counts quality problems over one import.
type Report struct {
	Rows                  int             `json:"rows"`
	InvalidDates          int             `json:"invalid_dates"`
	NonPositiveQuantities int             `json:"non_positive_quantities"`
	MissingSupplier       int             `json:"missing_supplier"`
	MissingCustomer       int             `json:"missing_customer"`
	MissingCategory       int             `json:"missing_category"`
	Headers               []HeaderMapping `json:"headers"`
}

// HeaderMapping records how one raw header was resolved. Field is empty when
// the header was dropped.
type HeaderMapping struct {
	Raw      string       `json:"raw"`
	Field    record.Field `json:"field,omitempty"`
	Resolved bool         `json:"resolved"`
}

// Check builds a report for rows decoded with the given raw headers.
func Check(headers []string, rows []record.Row) *Report {
	rep := &Report{Rows: len(rows), Headers: make([]HeaderMapping, 0, len(headers))}
	for _, r := range rows {
		if r.ParsedDate == nil {
			rep.InvalidDates++
		}
		if r.Quantity <= 0 {
			rep.NonPositiveQuantities++
		}
		if r.SupplierID == "" {
			rep.MissingSupplier++
		}
		if r.CustomerID == "" {
			rep.MissingCustomer++
		}
		if r.Category == "" {
			rep.MissingCategory++
		}
	}
	for _, h := range headers {
		f, ok := parser.ResolveHeader(h)
		rep.Headers = append(rep.Headers, HeaderMapping{Raw: h, Field: f, Resolved: ok})
	}
	return rep
}

// FromResult checks a parse result.
func FromResult(res *parser.Result) *Report {
	return Check(res.Headers, res.Rows)
}

// Unresolved lists the raw headers that map to no canonical field.
func (r *Report) Unresolved() []string {
	var out []string
	for _, h := range r.Headers {
		if !h.Resolved {
			out = append(out, h.Raw)
		}
	}
	return out
}

// Markdown renders the report in the same sectioned style as the summary.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATA QUALITY]\n")
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Invalid or missing dates: %d\n", r.InvalidDates))
	b.WriteString(fmt.Sprintf("Zero or negative quantities: %d\n", r.NonPositiveQuantities))
	b.WriteString(fmt.Sprintf("Missing supplier: %d\n", r.MissingSupplier))
	b.WriteString(fmt.Sprintf("Missing customer: %d\n", r.MissingCustomer))
	b.WriteString(fmt.Sprintf("Missing category: %d\n", r.MissingCategory))
	if len(r.Headers) > 0 {
		b.WriteString("\n[HEADERS]\n")
		for _, h := range r.Headers {
			if h.Resolved {
				b.WriteString(fmt.Sprintf("- %s -> %s\n", h.Raw, h.Field))
			} else {
				b.WriteString(fmt.Sprintf("- %s (dropped)\n", h.Raw))
			}
		}
	}
	return b.String()
}

// RenderTable writes the report as terminal tables.
func (r *Report) RenderTable(w io.Writer) error {
	counts := pterm.TableData{
		{"Check", "Rows"},
		{"Total", strconv.Itoa(r.Rows)},
		{"Invalid dates", strconv.Itoa(r.InvalidDates)},
		{"Non-positive quantities", strconv.Itoa(r.NonPositiveQuantities)},
		{"Missing supplier", strconv.Itoa(r.MissingSupplier)},
		{"Missing customer", strconv.Itoa(r.MissingCustomer)},
		{"Missing category", strconv.Itoa(r.MissingCategory)},
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(counts).Srender()
	if err != nil {
		return fmt.Errorf("render quality table: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n\n", out); err != nil {
		return err
	}
	if len(r.Headers) == 0 {
		return nil
	}
	headers := pterm.TableData{{"Header", "Field"}}
	for _, h := range r.Headers {
		field := string(h.Field)
		if !h.Resolved {
			field = "(dropped)"
		}
		headers = append(headers, []string{h.Raw, field})
	}
	out, err = pterm.DefaultTable.WithHasHeader().WithData(headers).Srender()
	if err != nil {
		return fmt.Errorf("render header table: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}
