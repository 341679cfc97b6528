package domain

import "github.com/shopspring/decimal"

type StockReport struct {
	OutOfStock     []Medication    `json:"out_of_stock"`
	LowStock       []Medication    `json:"low_stock"`
	Normal         []Medication    `json:"normal"`
	Total          int             `json:"total_medications"`
	TotalOutOf     int             `json:"total_out_of_stock"`
	TotalLow       int             `json:"total_low_stock"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
}

// NewStockReport buckets medications by stock status and sums their value.
func NewStockReport(meds []Medication) StockReport {
	report := StockReport{
		OutOfStock:     []Medication{},
		LowStock:       []Medication{},
		Normal:         []Medication{},
		Total:          len(meds),
		InventoryValue: decimal.Zero,
	}
	for _, m := range meds {
		switch m.StockStatus() {
		case StockOutOf:
			report.OutOfStock = append(report.OutOfStock, m)
		case StockLow:
			report.LowStock = append(report.LowStock, m)
		default:
			report.Normal = append(report.Normal, m)
		}
		report.InventoryValue = report.InventoryValue.Add(m.StockValue())
	}
	report.TotalOutOf = len(report.OutOfStock)
	report.TotalLow = len(report.LowStock)
	return report
}

type DailySales struct {
	Date       string          `json:"date"`
	SalesCount int             `json:"sales_count"`
	Units      int64           `json:"units"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type SalesReport struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	SalesCount int             `json:"sales_count"`
	Cancelled  int             `json:"cancelled_count"`
	Units      int64           `json:"units"`
	Discounts  decimal.Decimal `json:"discounts"`
	Taxes      decimal.Decimal `json:"taxes"`
	Revenue    decimal.Decimal `json:"revenue"`
	Days       []DailySales    `json:"days"`
}

// NewSalesReport totals sales per day. Cancelled sales are counted but bring no units or revenue.
// sales must be ordered by sale date.
func NewSalesReport(from, to string, sales []Sale) SalesReport {
	report := SalesReport{
		From:      from,
		To:        to,
		Discounts: decimal.Zero,
		Taxes:     decimal.Zero,
		Revenue:   decimal.Zero,
		Days:      []DailySales{},
	}
	for _, s := range sales {
		if s.Status == SaleCancelled {
			report.Cancelled++
			continue
		}
		if n := len(report.Days); n == 0 || report.Days[n-1].Date != s.SaleDate {
			report.Days = append(report.Days, DailySales{Date: s.SaleDate, Revenue: decimal.Zero})
		}
		day := &report.Days[len(report.Days)-1]
		day.SalesCount++
		day.Units += s.Quantity
		day.Revenue = day.Revenue.Add(s.Total)

		report.SalesCount++
		report.Units += s.Quantity
		report.Discounts = report.Discounts.Add(s.Discount)
		report.Taxes = report.Taxes.Add(s.Tax)
		report.Revenue = report.Revenue.Add(s.Total)
	}
	return report
}
