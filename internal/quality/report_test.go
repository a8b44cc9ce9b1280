package quality

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/medflow-cli/internal/parser"
	"github.com/KaramelBytes/medflow-cli/internal/record"
)

const sample = "Vendor,Client,Type,Qty,Delivery Date,Price\n" +
	"S1,C1,Gloves,10,20240101,1.5\n" +
	"S2,,Masks,0,2024-01,2\n" +
	",C3,,-4,,3\n"

func TestFromResult(t *testing.T) {
	rep := FromResult(parser.Parse(sample))
	assert.Equal(t, 3, rep.Rows)
	assert.Equal(t, 2, rep.InvalidDates)
	assert.Equal(t, 2, rep.NonPositiveQuantities)
	assert.Equal(t, 1, rep.MissingSupplier)
	assert.Equal(t, 1, rep.MissingCustomer)
	assert.Equal(t, 1, rep.MissingCategory)

	require.Len(t, rep.Headers, 6)
	assert.Equal(t, HeaderMapping{Raw: "Vendor", Field: record.FieldSupplierID, Resolved: true}, rep.Headers[0])
	assert.Equal(t, HeaderMapping{Raw: "Delivery Date", Field: record.FieldDeliveryDateRaw, Resolved: true}, rep.Headers[4])
	assert.Equal(t, []string{"Price"}, rep.Unresolved())
}

func TestCheckEmpty(t *testing.T) {
	rep := Check(nil, nil)
	assert.Zero(t, rep.Rows)
	assert.Empty(t, rep.Unresolved())
	assert.NotContains(t, rep.Markdown(), "[HEADERS]")
}

func TestRendering(t *testing.T) {
	rep := FromResult(parser.Parse(sample))
	md := rep.Markdown()
	assert.Contains(t, md, "[DATA QUALITY]")
	assert.Contains(t, md, "Invalid or missing dates: 2")
	assert.Contains(t, md, "- Vendor -> SupplierID")
	assert.Contains(t, md, "- Price (dropped)")

	pterm.DisableColor()
	var buf bytes.Buffer
	require.NoError(t, rep.RenderTable(&buf))
	assert.Contains(t, buf.String(), "Non-positive quantities")
	assert.Contains(t, buf.String(), "(dropped)")
}
