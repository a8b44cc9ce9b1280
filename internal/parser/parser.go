// Package parser turns raw delivery data (JSON, CSV or XLSX) into canonical
// rows. Text input never fails: unparseable content degrades to fewer rows or
// rows filled with defaults.
package parser

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/KaramelBytes/medflow-cli/internal/logger"
	"github.com/KaramelBytes/medflow-cli/internal/record"
)

// Format identifies how an input was decoded.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Result is the outcome of one import.
type Result struct {
	Format Format `json:"format"`
	// Headers lists the distinct raw keys seen, in first-seen order.
	Headers []string     `json:"headers"`
	Rows    []record.Row `json:"rows"`
}

// Parser decodes a file's content into rows.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte) (*Result, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// Parse detects the format of raw text and normalizes every record. A JSON
// array yields one row per element, any other valid JSON yields no rows, and
// anything that is not JSON is read as CSV.
func Parse(text string) *Result {
	text = strings.TrimPrefix(text, "\ufeff")
	format := FormatJSON
	recs, ok := decodeJSON([]byte(text))
	if !ok {
		format = FormatCSV
		recs = decodeCSV(text)
	}
	res := build(format, recs)
	logger.Named("parser").Debugw("parsed text input",
		logger.FieldFormat, res.Format,
		logger.FieldCount, len(res.Rows))
	return res
}

// ParseFile reads path ("-" for stdin) and dispatches on its extension.
// Unknown extensions fall back to content detection.
func ParseFile(path string) (*Result, error) {
	if path == "-" {
		return ParseReader(os.Stdin, "")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	res, err := parseContent(path, data)
	if err != nil {
		return nil, err
	}
	logger.Named("parser").Debugw("parsed file",
		logger.FieldFile, filepath.Base(path),
		logger.FieldFormat, res.Format,
		logger.FieldCount, len(res.Rows))
	return res, nil
}

// ParseReader reads all of r. name, when set, selects a parser by extension.
func ParseReader(r io.Reader, name string) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	return parseContent(name, data)
}

func parseContent(name string, data []byte) (*Result, error) {
	if name != "" {
		for _, p := range registry {
			if p.CanParse(name) {
				return p.Parse(data)
			}
		}
	}
	return Parse(string(data)), nil
}

func build(format Format, recs []RawRecord) *Result {
	res := &Result{Format: format, Headers: []string{}, Rows: make([]record.Row, 0, len(recs))}
	seen := map[string]struct{}{}
	for _, rec := range recs {
		for _, f := range rec {
			if _, ok := seen[f.Key]; !ok {
				seen[f.Key] = struct{}{}
				res.Headers = append(res.Headers, f.Key)
			}
		}
		res.Rows = append(res.Rows, Normalize(rec))
	}
	return res
}

type textParser struct{}

func (textParser) CanParse(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", ".csv", ".txt":
		return true
	}
	return false
}

func (textParser) Parse(content []byte) (*Result, error) {
	return Parse(string(content)), nil
}

func init() {
	Register(textParser{})
	Register(xlsxParser{})
}
