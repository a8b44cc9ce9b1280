package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/medflow-cli/internal/record"
)

func TestResolveHeader(t *testing.T) {
	tests := []struct {
		key  string
		want record.Field
	}{
		{"Supplier", record.FieldSupplierID},
		{"VENDOR", record.FieldSupplierID},
		{"sup_id", record.FieldSupplierID},
		{"Supplier ID", record.FieldSupplierID},
		{"Client", record.FieldCustomerID},
		{"cust-no", record.FieldCustomerID},
		{"Delivery Date", record.FieldDeliveryDateRaw},
		{"deliver_date", record.FieldDeliveryDateRaw},
		{"Product Type", record.FieldCategory},
		{"License No.", record.FieldLicenseNo},
		{"Model", record.FieldModel},
		{"Lot No", record.FieldLotNumber},
		{"Serial", record.FieldSerialNumber},
		{"SN", record.FieldSerialNumber},
		{"Qty", record.FieldQuantity},
		{"Item Count", record.FieldQuantity},
		{"UDID", record.FieldUDID},
		{"Device Name", record.FieldDeviceName},
		// substring matching follows table order: "date" precedes "license".
		{"license date", record.FieldDeliveryDateRaw},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := ResolveHeader(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveHeaderEveryAlias(t *testing.T) {
	require.Len(t, aliases, 28)
	for _, a := range aliases {
		got, ok := ResolveHeader(a.key)
		if assert.True(t, ok, "alias %q", a.key) {
			assert.Equal(t, a.field, got, "alias %q", a.key)
		}
	}
}

func TestResolveHeaderUnknown(t *testing.T) {
	for _, key := range []string{"", "---", "price", "warehouse"} {
		_, ok := ResolveHeader(key)
		assert.False(t, ok, "key %q", key)
	}
}

func TestNormalizeLaterKeyWins(t *testing.T) {
	rec := RawRecord{}.Set("supplier", "A").Set("vendor", "B")
	row := Normalize(rec)
	assert.Equal(t, "B", row.SupplierID)
}

func TestNormalizeDeterministic(t *testing.T) {
	rec := RawRecord{}.
		Set("Supplier", "S").
		Set("Qty", "5").
		Set("Delivery Date", "20240101").
		Set("Lot No", "L-9")
	first := Normalize(rec)
	again := Normalize(rec)
	require.NotNil(t, first.ParsedDate)
	assert.Equal(t, first, again)
	assert.Equal(t, "S", again.SupplierID)
	assert.EqualValues(t, 5, again.Quantity)
}

func TestNormalizeDropsUnknownAndDefaults(t *testing.T) {
	row := Normalize(RawRecord{}.Set("price", "9.99"))
	assert.Equal(t, record.Row{}, row)
	assert.Nil(t, row.ParsedDate)
	assert.EqualValues(t, 0, row.Quantity)
}

func TestRawRecordSetKeepsPosition(t *testing.T) {
	rec := RawRecord{}.Set("a", 1).Set("b", 2).Set("a", 3)
	require.Len(t, rec, 2)
	assert.Equal(t, "a", rec[0].Key)
	assert.Equal(t, 3, rec[0].Value)
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]int64{
		"12":                   12,
		"  7":                  7,
		"-3":                   -3,
		"+4":                   4,
		"12 boxes":             12,
		"3.9":                  3,
		"abc":                  0,
		"":                     0,
		"-":                    0,
		"99999999999999999999": 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseQuantity(in), "input %q", in)
	}
}

func TestParseDeliveryDate(t *testing.T) {
	valid := map[string]string{
		"20240115":   "2024-01-15",
		"2024-01-15": "2024-01-15",
		"2024/01/15": "2024-01-15",
		"20240229":   "2024-02-29",
	}
	for in, want := range valid {
		d, ok := ParseDeliveryDate(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, want, d.String())
	}
	for _, in := range []string{"", "2024-01", "2024-01-15T10:00", "20241301", "20230229", "abcdefgh"} {
		_, ok := ParseDeliveryDate(in)
		assert.False(t, ok, "input %q", in)
	}
}
