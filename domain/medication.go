package domain

import "github.com/shopspring/decimal"

// DefaultMinStock applies when a medication is saved without a threshold.
const DefaultMinStock int64 = 10

type StockStatus string

const (
	StockOutOf  StockStatus = "out_of_stock"
	StockLow    StockStatus = "low_stock"
	StockNormal StockStatus = "normal"
)

type Medication struct {
	ID                   int64           `db:"id" json:"id"`
	GenericName          string          `db:"generic_name" json:"generic_name"`
	Presentation         string          `db:"presentation" json:"presentation"`
	Dose                 string          `db:"dose" json:"dose"`
	Route                string          `db:"route" json:"route"`
	LabCode              string          `db:"lab_code" json:"lab_code"`
	SanitaryRegistration *string         `db:"sanitary_registration" json:"sanitary_registration,omitempty"`
	Contraindications    string          `db:"contraindications" json:"contraindications"`
	Precautions          string          `db:"precautions" json:"precautions"`
	RequiresPrescription bool            `db:"requires_prescription" json:"requires_prescription"`
	Quantity             int64           `db:"quantity" json:"quantity"`
	MinStock             int64           `db:"min_stock" json:"min_stock"`
	UnitPrice            decimal.Decimal `db:"unit_price" json:"unit_price"`
	Active               bool            `db:"active" json:"active"`
	ExpiryDate           *string         `db:"expiry_date" json:"expiry_date,omitempty"`
	CreatedAt            string          `db:"created_at" json:"created_at"`
	UpdatedAt            string          `db:"updated_at" json:"updated_at"`
}

// StockStatus classifies the on-hand quantity against the minimum threshold.
func (m Medication) StockStatus() StockStatus {
	switch {
	case m.Quantity <= 0:
		return StockOutOf
	case m.Quantity <= m.MinStock:
		return StockLow
	default:
		return StockNormal
	}
}

// StockValue is quantity times unit price.
func (m Medication) StockValue() decimal.Decimal {
	return m.UnitPrice.Mul(decimal.NewFromInt(m.Quantity))
}
