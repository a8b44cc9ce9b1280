// Package filter narrows a row set before aggregation or graph building.
package filter

import (
	"strings"

	"github.com/KaramelBytes/medflow-cli/internal/record"
)

// Criteria selects rows. Zero-valued fields do not constrain.
type Criteria struct {
	Suppliers  []string `json:"suppliers,omitempty"`
	Customers  []string `json:"customers,omitempty"`
	Categories []string `json:"categories,omitempty"`

	// Text criteria match case-insensitively as substrings.
	License string `json:"license,omitempty"`
	Model   string `json:"model,omitempty"`
	Lot     string `json:"lot,omitempty"`
	Serial  string `json:"serial,omitempty"`

	// Inclusive bounds. Undated rows are excluded once either is set.
	DateMin *record.Date `json:"date_min,omitempty"`
	DateMax *record.Date `json:"date_max,omitempty"`
}

// IsZero reports whether c matches every row.
func (c Criteria) IsZero() bool {
	return len(c.Suppliers) == 0 && len(c.Customers) == 0 && len(c.Categories) == 0 &&
		c.License == "" && c.Model == "" && c.Lot == "" && c.Serial == "" &&
		c.DateMin == nil && c.DateMax == nil
}

// Apply returns the rows matching c in input order. The input slice
// is never modified.
func Apply(rows []record.Row, c Criteria) []record.Row {
	if c.IsZero() {
		out := make([]record.Row, len(rows))
		copy(out, rows)
		return out
	}
	m := newMatcher(c)
	out := make([]record.Row, 0, len(rows))
	for _, r := range rows {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return out
}

type matcher struct {
	c          Criteria
	suppliers  map[string]struct{}
	customers  map[string]struct{}
	categories map[string]struct{}
	text       map[record.Dimension]string
}

func newMatcher(c Criteria) matcher {
	m := matcher{
		c:          c,
		suppliers:  toSet(c.Suppliers),
		customers:  toSet(c.Customers),
		categories: toSet(c.Categories),
		text:       map[record.Dimension]string{},
	}
	for dim, v := range map[record.Dimension]string{
		record.DimLicense: c.License,
		record.DimModel:   c.Model,
		record.DimLot:     c.Lot,
		record.DimSerial:  c.Serial,
	} {
		if v != "" {
			m.text[dim] = strings.ToLower(v)
		}
	}
	return m
}

func (m matcher) match(r record.Row) bool {
	if !inSet(m.suppliers, r.SupplierID) || !inSet(m.customers, r.CustomerID) || !inSet(m.categories, r.Category) {
		return false
	}
	for dim, needle := range m.text {
		if !strings.Contains(strings.ToLower(r.Value(dim)), needle) {
			return false
		}
	}
	if m.c.DateMin == nil && m.c.DateMax == nil {
		return true
	}
	if r.ParsedDate == nil {
		return false
	}
	if m.c.DateMin != nil && r.ParsedDate.Before(*m.c.DateMin) {
		return false
	}
	if m.c.DateMax != nil && m.c.DateMax.Before(*r.ParsedDate) {
		return false
	}
	return true
}

func toSet(vals []string) map[string]struct{} {
	if len(vals) == 0 {
		return nil
	}
	s := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// inSet treats a nil set as unconstrained.
func inSet(s map[string]struct{}, v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

// SplitList splits comma-separated values from repeatable flags or query
// parameters, trimming blanks.
func SplitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
