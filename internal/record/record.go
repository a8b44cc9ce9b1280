// Package record defines the canonical delivery row shared by the parser,
// the aggregation engine and the graph builder.
package record

import (
	"encoding/json"
	"fmt"
	"time"
)

// Field names a canonical column of a Row.
type Field string

const (
	FieldSupplierID      Field = "SupplierID"
	FieldCustomerID      Field = "CustomerID"
	FieldCategory        Field = "Category"
	FieldLicenseNo       Field = "LicenseNo"
	FieldModel           Field = "Model"
	FieldLotNumber       Field = "LotNumber"
	FieldSerialNumber    Field = "SerialNumber"
	FieldUDID            Field = "UDID"
	FieldDeviceName      Field = "DeviceName"
	FieldQuantity        Field = "Quantity"
	FieldDeliveryDateRaw Field = "DeliveryDateRaw"
)

// Fields lists every canonical column in declaration order.
var Fields = []Field{
	FieldSupplierID, FieldCustomerID, FieldCategory, FieldLicenseNo, FieldModel,
	FieldLotNumber, FieldSerialNumber, FieldUDID, FieldDeviceName, FieldQuantity,
	FieldDeliveryDateRaw,
}

// IsField reports whether name is exactly one of the canonical column names.
func IsField(name string) bool {
	for _, f := range Fields {
		if string(f) == name {
			return true
		}
	}
	return false
}

// Row is one normalized delivery transaction. Rows are created once at parse
// time and treated as immutable afterwards.
type Row struct {
	SupplierID      string `json:"SupplierID"`
	CustomerID      string `json:"CustomerID"`
	Category        string `json:"Category"`
	LicenseNo       string `json:"LicenseNo"`
	Model           string `json:"Model"`
	LotNumber       string `json:"LotNumber"`
	SerialNumber    string `json:"SerialNumber"`
	UDID            string `json:"UDID"`
	DeviceName      string `json:"DeviceName"`
	Quantity        int64  `json:"Quantity"`
	DeliveryDateRaw string `json:"DeliveryDateRaw"`
	// ParsedDate is nil unless DeliveryDateRaw held exactly eight digits
	// forming a real calendar date.
	ParsedDate *Date `json:"ParsedDate,omitempty"`
}

// Dimension selects a string column used for grouping and filtering.
type Dimension string

const (
	DimSupplier Dimension = "supplier"
	DimCustomer Dimension = "customer"
	DimCategory Dimension = "category"
	DimModel    Dimension = "model"
	DimLicense  Dimension = "license"
	DimLot      Dimension = "lot"
	DimSerial   Dimension = "serial"
	DimUDID     Dimension = "udid"
	DimDevice   Dimension = "device"
)

// Value returns the row's value for the given dimension, or "" for an
// unknown dimension.
func (r Row) Value(d Dimension) string {
	switch d {
	case DimSupplier:
		return r.SupplierID
	case DimCustomer:
		return r.CustomerID
	case DimCategory:
		return r.Category
	case DimModel:
		return r.Model
	case DimLicense:
		return r.LicenseNo
	case DimLot:
		return r.LotNumber
	case DimSerial:
		return r.SerialNumber
	case DimUDID:
		return r.UDID
	case DimDevice:
		return r.DeviceName
	}
	return ""
}

// Date is a calendar date without time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate validates the triple and returns a Date. Month is one-based.
func NewDate(year int, month time.Month, day int) (Date, bool) {
	if year < 0 || month < time.January || month > time.December || day < 1 {
		return Date{}, false
	}
	// time.Date normalizes overflow; a round trip detects Feb 30 and friends.
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, false
	}
	return Date{Year: year, Month: month, Day: day}, true
}

// ParseISODate accepts YYYY-MM-DD or YYYYMMDD.
func ParseISODate(s string) (Date, bool) {
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, true
		}
	}
	return Date{}, false
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// UnixMilli returns the epoch milliseconds of midnight UTC.
func (d Date) UnixMilli() int64 { return d.Time().UnixMilli() }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, ok := ParseISODate(s)
	if !ok {
		return fmt.Errorf("invalid date %q", s)
	}
	*d = parsed
	return nil
}
