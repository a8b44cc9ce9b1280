// Package analysis aggregates canonical rows into the dashboard Summary:
// totals, unique counts, top-N breakdowns, a daily trend and a scatter
// projection.
package analysis

import (
	"sort"

	"github.com/KaramelBytes/medflow-cli/internal/logger"
	"github.com/KaramelBytes/medflow-cli/internal/record"
)

// UnknownKey stands in for an empty dimension value in top-N tables.
const UnknownKey = "Unknown"

// Sampling selects how the scatter projection is bounded.
type Sampling string

const (
	// SamplingHead keeps the first dated rows in input order.
	SamplingHead Sampling = "head"
	// SamplingStride keeps evenly spaced dated rows, preserving order.
	SamplingStride Sampling = "stride"
)

// Options controls the size of the derived tables.
type Options struct {
	TopSuppliers  int
	TopCustomers  int
	TopCategories int
	TopModels     int
	TopLicenses   int
	// SampleRows is how many input rows are echoed verbatim.
	SampleRows      int
	ScatterLimit    int
	ScatterSampling Sampling
}

// DefaultOptions mirrors the dashboard's limits.
func DefaultOptions() Options {
	return Options{
		TopSuppliers:    5,
		TopCustomers:    5,
		TopCategories:   5,
		TopModels:       7,
		TopLicenses:     5,
		SampleRows:      5,
		ScatterLimit:    100,
		ScatterSampling: SamplingHead,
	}
}

// withDefaults fills non-positive fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	fill := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&o.TopSuppliers, d.TopSuppliers)
	fill(&o.TopCustomers, d.TopCustomers)
	fill(&o.TopCategories, d.TopCategories)
	fill(&o.TopModels, d.TopModels)
	fill(&o.TopLicenses, d.TopLicenses)
	fill(&o.SampleRows, d.SampleRows)
	fill(&o.ScatterLimit, d.ScatterLimit)
	if o.ScatterSampling != SamplingStride {
		o.ScatterSampling = SamplingHead
	}
	return o
}

// WithTopN sets every top-N limit to n.
func (o Options) WithTopN(n int) Options {
	o.TopSuppliers, o.TopCustomers, o.TopCategories, o.TopModels, o.TopLicenses = n, n, n, n, n
	return o
}

// Summary is a derived view of a row set. It is recomputed from scratch
// whenever the rows or the active filter change.
type Summary struct {
	Rows          int            `json:"rows"`
	TotalUnits    int64          `json:"total_units"`
	Unique        UniqueCounts   `json:"unique"`
	DateRange     DateRange      `json:"date_range"`
	TopSuppliers  []TopEntry     `json:"top_suppliers"`
	TopCustomers  []TopEntry     `json:"top_customers"`
	TopCategories []TopEntry     `json:"top_categories"`
	TopModels     []TopEntry     `json:"top_models"`
	TopLicenses   []TopEntry     `json:"top_licenses"`
	DailyTrend    []TrendPoint   `json:"daily_trend"`
	ScatterData   []ScatterPoint `json:"scatter_data"`
	SampleRows    []record.Row   `json:"sample_rows"`
}

// UniqueCounts counts distinct non-empty values.
type UniqueCounts struct {
	Suppliers  int `json:"suppliers"`
	Customers  int `json:"customers"`
	Categories int `json:"categories"`
}

// DateRange is empty (both nil) when no row has a parsed date.
type DateRange struct {
	Min *record.Date `json:"min"`
	Max *record.Date `json:"max"`
}

type TopEntry struct {
	Key   string `json:"key"`
	Units int64  `json:"units"`
}

type TrendPoint struct {
	Date   string `json:"date"`
	Units  int64  `json:"units"`
	Orders int    `json:"orders"`
}

// ScatterPoint places one dated row: X is epoch milliseconds at UTC midnight.
type ScatterPoint struct {
	X        int64  `json:"x"`
	Y        int64  `json:"y"`
	Category string `json:"category"`
}

// Summarize computes the Summary of rows. It never fails and never mutates
// rows.
func Summarize(rows []record.Row, opt Options) *Summary {
	opt = opt.withDefaults()
	s := &Summary{Rows: len(rows)}

	suppliers := map[string]struct{}{}
	customers := map[string]struct{}{}
	categories := map[string]struct{}{}
	for i := range rows {
		r := &rows[i]
		s.TotalUnits += r.Quantity
		addNonEmpty(suppliers, r.SupplierID)
		addNonEmpty(customers, r.CustomerID)
		addNonEmpty(categories, r.Category)
		if r.ParsedDate == nil {
			continue
		}
		d := *r.ParsedDate
		if s.DateRange.Min == nil || d.Before(*s.DateRange.Min) {
			lo := d
			s.DateRange.Min = &lo
		}
		if s.DateRange.Max == nil || s.DateRange.Max.Before(d) {
			hi := d
			s.DateRange.Max = &hi
		}
	}
	s.Unique = UniqueCounts{Suppliers: len(suppliers), Customers: len(customers), Categories: len(categories)}

	s.TopSuppliers = TopN(rows, record.DimSupplier, opt.TopSuppliers)
	s.TopCustomers = TopN(rows, record.DimCustomer, opt.TopCustomers)
	s.TopCategories = TopN(rows, record.DimCategory, opt.TopCategories)
	s.TopModels = TopN(rows, record.DimModel, opt.TopModels)
	s.TopLicenses = TopN(rows, record.DimLicense, opt.TopLicenses)
	s.DailyTrend = DailyTrend(rows)
	s.ScatterData = Scatter(rows, opt.ScatterLimit, opt.ScatterSampling)

	n := opt.SampleRows
	if n > len(rows) {
		n = len(rows)
	}
	s.SampleRows = make([]record.Row, n)
	copy(s.SampleRows, rows[:n])

	logger.Named("analysis").Debugw("summarized rows",
		logger.FieldCount, s.Rows,
		"trend_days", len(s.DailyTrend),
		"scatter_points", len(s.ScatterData))
	return s
}

func addNonEmpty(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

// TopN groups rows by dim (empty values grouped as UnknownKey), sums
// quantities and returns at most limit groups by descending units. Equal
// units keep first-seen order.
func TopN(rows []record.Row, dim record.Dimension, limit int) []TopEntry {
	type group struct {
		entry TopEntry
		first int
	}
	idx := map[string]int{}
	var groups []group
	for _, r := range rows {
		key := r.Value(dim)
		if key == "" {
			key = UnknownKey
		}
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, group{entry: TopEntry{Key: key}, first: i})
		}
		groups[i].entry.Units += r.Quantity
	}
	sort.Slice(groups, func(a, b int) bool {
		if groups[a].entry.Units != groups[b].entry.Units {
			return groups[a].entry.Units > groups[b].entry.Units
		}
		return groups[a].first < groups[b].first
	})
	if limit < 0 {
		limit = 0
	}
	if len(groups) > limit {
		groups = groups[:limit]
	}
	out := make([]TopEntry, len(groups))
	for i, g := range groups {
		out[i] = g.entry
	}
	return out
}

// DailyTrend buckets dated rows per calendar day, ascending.
func DailyTrend(rows []record.Row) []TrendPoint {
	byDay := map[string]*TrendPoint{}
	for _, r := range rows {
		if r.ParsedDate == nil {
			continue
		}
		key := r.ParsedDate.String()
		p := byDay[key]
		if p == nil {
			p = &TrendPoint{Date: key}
			byDay[key] = p
		}
		p.Units += r.Quantity
		p.Orders++
	}
	out := make([]TrendPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Scatter projects dated rows to points, bounded by limit.
func Scatter(rows []record.Row, limit int, sampling Sampling) []ScatterPoint {
	dated := make([]*record.Row, 0, len(rows))
	for i := range rows {
		if rows[i].ParsedDate != nil {
			dated = append(dated, &rows[i])
		}
	}
	if limit < 0 {
		limit = 0
	}
	picked := dated
	if len(dated) > limit {
		if sampling == SamplingStride {
			picked = make([]*record.Row, limit)
			for i := range picked {
				picked[i] = dated[i*len(dated)/limit]
			}
		} else {
			picked = dated[:limit]
		}
	}
	out := make([]ScatterPoint, len(picked))
	for i, r := range picked {
		out[i] = ScatterPoint{X: r.ParsedDate.UnixMilli(), Y: r.Quantity, Category: r.Category}
	}
	return out
}
