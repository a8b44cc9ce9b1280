package parser

import "strings"

// decodeCSV reads comma-separated text: the first line names the columns and
// each later line is zipped positionally against them. Fewer than two lines
// yields nothing.
func decodeCSV(text string) []RawRecord {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return nil
	}
	headers := splitHeader(lines[0])
	recs := make([]RawRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		recs = append(recs, zipRecord(headers, SplitLine(line)))
	}
	return recs
}

// splitHeader splits on every comma; quotes carry no meaning in the header
// line and are removed.
func splitHeader(line string) []string {
	parts := strings.Split(line, ",")
	for i, h := range parts {
		parts[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}
	return parts
}

// zipRecord pairs headers with cols. Missing trailing columns become "" and
// surplus columns are ignored.
func zipRecord(headers, cols []string) RawRecord {
	rec := make(RawRecord, 0, len(headers))
	for i, h := range headers {
		v := ""
		if i < len(cols) {
			v = stripQuotes(cols[i])
		}
		rec = rec.Set(h, v)
	}
	return rec
}

// SplitLine splits one CSV line on commas outside double quotes. A quote
// toggles quoting and is not copied; fields are trimmed.
func SplitLine(line string) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuote = !inQuote
		case ch == ',' && !inQuote:
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	return append(out, strings.TrimSpace(cur.String()))
}

func stripQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
