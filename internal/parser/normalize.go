package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/medflow-cli/internal/record"
)

type alias struct {
	key   string
	field record.Field
}

// aliases is scanned in order during substring matching, so its order decides
// which field wins for an ambiguous header such as "license date".
var aliases = []alias{
	{"supplier", record.FieldSupplierID},
	{"vendor", record.FieldSupplierID},
	{"sup", record.FieldSupplierID},
	{"supplierid", record.FieldSupplierID},
	{"customer", record.FieldCustomerID},
	{"client", record.FieldCustomerID},
	{"cust", record.FieldCustomerID},
	{"customerid", record.FieldCustomerID},
	{"date", record.FieldDeliveryDateRaw},
	{"deliverydate", record.FieldDeliveryDateRaw},
	{"deliverdate", record.FieldDeliveryDateRaw},
	{"category", record.FieldCategory},
	{"type", record.FieldCategory},
	{"license", record.FieldLicenseNo},
	{"licenseno", record.FieldLicenseNo},
	{"model", record.FieldModel},
	{"lot", record.FieldLotNumber},
	{"lotno", record.FieldLotNumber},
	{"serial", record.FieldSerialNumber},
	{"serno", record.FieldSerialNumber},
	{"sn", record.FieldSerialNumber},
	{"qty", record.FieldQuantity},
	{"quantity", record.FieldQuantity},
	{"number", record.FieldQuantity},
	{"count", record.FieldQuantity},
	{"udid", record.FieldUDID},
	{"devicename", record.FieldDeviceName},
	{"device", record.FieldDeviceName},
}

var aliasIndex = func() map[string]record.Field {
	m := make(map[string]record.Field, len(aliases))
	for _, a := range aliases {
		m[a.key] = a.field
	}
	return m
}()

// normalizeKey lower-cases s and keeps only ASCII letters and digits.
func normalizeKey(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ResolveHeader maps a raw key to a canonical field: exact alias match first,
// then the first alias contained in the normalized key, then the key itself if
// it already is a canonical field name.
func ResolveHeader(key string) (record.Field, bool) {
	norm := normalizeKey(key)
	if f, ok := aliasIndex[norm]; ok {
		return f, true
	}
	if norm != "" {
		for _, a := range aliases {
			if strings.Contains(norm, a.key) {
				return a.field, true
			}
		}
	}
	if record.IsField(key) {
		return record.Field(key), true
	}
	return "", false
}

// Normalize converts a raw record into a canonical row. Unresolved keys are
// dropped; malformed quantities and dates fall back to defaults.
func Normalize(rec RawRecord) record.Row {
	vals := make(map[record.Field]any, len(record.Fields))
	for _, f := range rec {
		if field, ok := ResolveHeader(f.Key); ok {
			vals[field] = f.Value
		}
	}
	str := func(f record.Field) string { return stringify(vals[f]) }
	row := record.Row{
		SupplierID:      str(record.FieldSupplierID),
		CustomerID:      str(record.FieldCustomerID),
		Category:        str(record.FieldCategory),
		LicenseNo:       str(record.FieldLicenseNo),
		Model:           str(record.FieldModel),
		LotNumber:       str(record.FieldLotNumber),
		SerialNumber:    str(record.FieldSerialNumber),
		UDID:            str(record.FieldUDID),
		DeviceName:      str(record.FieldDeviceName),
		Quantity:        ParseQuantity(str(record.FieldQuantity)),
		DeliveryDateRaw: str(record.FieldDeliveryDateRaw),
	}
	if d, ok := ParseDeliveryDate(row.DeliveryDateRaw); ok {
		row.ParsedDate = &d
	}
	return row
}

// ParseQuantity reads an optional sign and the leading run of digits after
// any leading whitespace, ignoring what follows ("12 boxes" is 12). No digits,
// or a value outside int64, gives 0.
func ParseQuantity(s string) int64 {
	s = strings.TrimLeft(s, " \t\r\n\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ParseDeliveryDate strips every non-digit and reads exactly eight remaining
// digits as YYYYMMDD. The date is taken at face value with no zone shift.
func ParseDeliveryDate(s string) (record.Date, bool) {
	var digits []byte
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits = append(digits, s[i])
		}
	}
	if len(digits) != 8 {
		return record.Date{}, false
	}
	y, _ := strconv.Atoi(string(digits[0:4]))
	m, _ := strconv.Atoi(string(digits[4:6]))
	d, _ := strconv.Atoi(string(digits[6:8]))
	return record.NewDate(y, time.Month(m), d)
}
