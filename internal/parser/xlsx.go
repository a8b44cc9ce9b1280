package parser

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".xlsx")
}

func (xlsxParser) Parse(content []byte) (*Result, error) {
	return ParseXLSX(content, "")
}

// ParseXLSX reads one worksheet: the named sheet, or the first one when sheet
// is empty. The first row holds the headers and cells are zipped against them
// like CSV columns. An unreadable workbook is an error; an empty sheet is not.
func ParseXLSX(content []byte, sheet string) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.Wrap(err, "open xlsx")
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return build(FormatXLSX, nil), nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheet)
	}
	if len(rows) < 2 {
		return build(FormatXLSX, nil), nil
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}
	recs := make([]RawRecord, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		recs = append(recs, zipRecord(headers, cells))
	}
	return build(FormatXLSX, recs), nil
}
