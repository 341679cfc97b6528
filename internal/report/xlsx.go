// Package report renders the stock report as an Excel workbook.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"farmacia/m/domain"
)

const sheetName = "Stock"

var header = []interface{}{
	"id",
	"generic_name",
	"presentation",
	"status",
	"quantity",
	"min_stock",
	"unit_price",
	"value",
}

// WriteStock writes one row per medication, grouped by status, followed by the totals.
func WriteStock(w io.Writer, report domain.StockReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetName); err != nil {
		return fmt.Errorf("could not name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}

	row := 2
	writeRow := func(values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("could not write row %d: %w", row, err)
		}
		row++
		return nil
	}

	for _, group := range [][]domain.Medication{report.OutOfStock, report.LowStock, report.Normal} {
		for _, m := range group {
			err := writeRow([]interface{}{
				m.ID,
				m.GenericName,
				m.Presentation,
				string(m.StockStatus()),
				m.Quantity,
				m.MinStock,
				m.UnitPrice.InexactFloat64(),
				m.StockValue().InexactFloat64(),
			})
			if err != nil {
				return err
			}
		}
	}

	row++
	totals := [][]interface{}{
		{"total_medications", report.Total},
		{"total_out_of_stock", report.TotalOutOf},
		{"total_low_stock", report.TotalLow},
		{"inventory_value", report.InventoryValue.InexactFloat64()},
	}
	for _, values := range totals {
		if err := writeRow(values); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("could not write workbook: %w", err)
	}
	return nil
}
