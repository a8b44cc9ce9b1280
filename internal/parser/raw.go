package parser

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RawField is one key/value pair of a source record.
type RawField struct {
	Key   string
	Value any
}

// RawRecord is an ordered key/value mapping taken from one JSON object or
// one CSV line. Order matters: when two keys resolve to the same canonical
// field, the later one wins.
type RawRecord []RawField

// Set stores v under key. A repeated key keeps its first position and takes
// the new value.
func (r RawRecord) Set(key string, v any) RawRecord {
	for i := range r {
		if r[i].Key == key {
			r[i].Value = v
			return r
		}
	}
	return append(r, RawField{Key: key, Value: v})
}

// decodeJSON reports ok=false when data is not a single valid JSON value.
// Valid JSON that is not an array yields no records.
func decodeJSON(data []byte) ([]RawRecord, bool) {
	if !json.Valid(data) {
		return nil, false
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, true
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, true
	}
	recs := make([]RawRecord, 0, len(elems))
	for _, el := range elems {
		recs = append(recs, decodeObject(el))
	}
	return recs, true
}

// decodeObject keeps object keys in source order. Non-object elements become
// empty records, which normalize to a row of defaults.
func decodeObject(raw json.RawMessage) RawRecord {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	var rec RawRecord
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			break
		}
		key, _ := kt.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			break
		}
		rec = rec.Set(key, v)
	}
	return rec
}

// stringify renders a decoded scalar the way it appeared in the source.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}
