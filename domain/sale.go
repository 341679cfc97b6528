package domain

import "github.com/shopspring/decimal"

// Sale states. Stock stays claimed in every state; only deleting a sale returns it.
const (
	SaleCompleted  = "completed"
	SalePending    = "pending"
	SaleInProgress = "in_progress"
	SaleCancelled  = "cancelled"
)

func ValidSaleStatus(status string) bool {
	switch status {
	case SaleCompleted, SalePending, SaleInProgress, SaleCancelled:
		return true
	}
	return false
}

type Sale struct {
	ID           int64           `db:"id" json:"id"`
	Reference    string          `db:"reference" json:"reference"`
	MedicationID int64           `db:"medication_id" json:"medication_id"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	ClientID     *int64          `db:"client_id" json:"client_id,omitempty"`
	EmployeeID   *int64          `db:"employee_id" json:"employee_id,omitempty"`
	SaleDate     string          `db:"sale_date" json:"sale_date"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	Discount     decimal.Decimal `db:"discount" json:"discount"`
	Tax          decimal.Decimal `db:"tax" json:"tax"`
	Total        decimal.Decimal `db:"total" json:"total"`
	Status       string          `db:"status" json:"status"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
	UpdatedAt    string          `db:"updated_at" json:"updated_at"`
}

// ComputeTotal prices the sale from its unit price snapshot. The result never goes below zero.
func (s *Sale) ComputeTotal() {
	total := s.UnitPrice.Mul(decimal.NewFromInt(s.Quantity)).Sub(s.Discount).Add(s.Tax)
	if total.IsNegative() {
		total = decimal.Zero
	}
	s.Total = total
}
