package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/KaramelBytes/medflow-cli/internal/analysis"
	"github.com/KaramelBytes/medflow-cli/internal/filter"
	"github.com/KaramelBytes/medflow-cli/internal/record"
)

// criteriaFromQuery reads the filter parameters. List parameters may repeat
// or hold comma-separated values.
func criteriaFromQuery(q url.Values) (filter.Criteria, error) {
	c := filter.Criteria{
		Suppliers:  filter.SplitList(q["supplier"]),
		Customers:  filter.SplitList(q["customer"]),
		Categories: filter.SplitList(q["category"]),
		License:    strings.TrimSpace(q.Get("license")),
		Model:      strings.TrimSpace(q.Get("model")),
		Lot:        strings.TrimSpace(q.Get("lot")),
		Serial:     strings.TrimSpace(q.Get("serial")),
	}
	var err error
	if c.DateMin, err = dateParam(q, "date_min"); err != nil {
		return filter.Criteria{}, err
	}
	if c.DateMax, err = dateParam(q, "date_max"); err != nil {
		return filter.Criteria{}, err
	}
	return c, nil
}

func dateParam(q url.Values, name string) (*record.Date, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil, nil
	}
	d, ok := record.ParseISODate(v)
	if !ok {
		return nil, errors.Newf("invalid %s %q (use YYYY-MM-DD or YYYYMMDD)", name, v)
	}
	return &d, nil
}

// intParam returns def when name is absent.
func intParam(q url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Newf("invalid %s %q", name, v)
	}
	return n, nil
}

func optionsFromQuery(q url.Values) (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	n, err := intParam(q, "top_n", 0)
	if err != nil {
		return opt, err
	}
	if n > 0 {
		opt = opt.WithTopN(n)
	}
	switch s := analysis.Sampling(q.Get("scatter_sampling")); s {
	case "", analysis.SamplingHead:
	case analysis.SamplingStride:
		opt.ScatterSampling = s
	default:
		return opt, errors.Newf("invalid scatter_sampling %q (use head or stride)", s)
	}
	return opt, nil
}
