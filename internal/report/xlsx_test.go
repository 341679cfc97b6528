package report

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"farmacia/m/domain"
)

func TestWriteStock(t *testing.T) {
	report := domain.NewStockReport([]domain.Medication{
		{ID: 1, GenericName: "Paracetamol", Quantity: 40, MinStock: 10, UnitPrice: decimal.RequireFromString("0.5")},
		{ID: 2, GenericName: "Amoxicilina", Quantity: 0, MinStock: 10, UnitPrice: decimal.NewFromInt(2)},
	})

	buf := &bytes.Buffer{}
	require.NoError(t, WriteStock(buf, report))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)

	assert.Equal(t, "generic_name", rows[0][1])
	assert.Equal(t, "Amoxicilina", rows[1][1])
	assert.Equal(t, string(domain.StockOutOf), rows[1][3])
	assert.Equal(t, "Paracetamol", rows[2][1])
	assert.Equal(t, "20", rows[2][7])

	last := rows[len(rows)-1]
	assert.Equal(t, []string{"inventory_value", "20"}, last)
}
