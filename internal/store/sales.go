package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"farmacia/m/domain"
)

const saleColumns = `id, reference, medication_id, quantity, client_id, employee_id, sale_date, unit_price,
	discount, tax, total, status, created_at, updated_at`

type SaleRepository struct{}

func NewSaleRepo() SaleRepository {
	return SaleRepository{}
}

func (SaleRepository) Create(ctx context.Context, q sqlx.ExtContext, s *domain.Sale) error {
	row := q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO sales (reference, medication_id, quantity, client_id, employee_id, sale_date, unit_price,
			discount, tax, total, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at`),
		s.Reference, s.MedicationID, s.Quantity, s.ClientID, s.EmployeeID, s.SaleDate, s.UnitPrice,
		s.Discount, s.Tax, s.Total, s.Status)
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("could not save sale: %w", classify(err))
	}
	return nil
}

func (SaleRepository) Get(ctx context.Context, q sqlx.ExtContext, id int64) (domain.Sale, error) {
	var s domain.Sale
	err := sqlx.GetContext(ctx, q, &s, q.Rebind(`SELECT `+saleColumns+` FROM sales WHERE id = ?`), id)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("could not get sale %d: %w", id, notFound(err))
	}
	return s, nil
}

// List returns newest sales first; medicationID 0 means every medication.
func (SaleRepository) List(ctx context.Context, q sqlx.ExtContext, medicationID int64) ([]domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales`
	var args []any
	if medicationID > 0 {
		query += ` WHERE medication_id = ?`
		args = append(args, medicationID)
	}
	query += ` ORDER BY id DESC`

	sales := []domain.Sale{}
	if err := sqlx.SelectContext(ctx, q, &sales, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("could not list sales: %w", err)
	}
	return sales, nil
}

// ListBetween returns the sales dated within [from, to], oldest day first.
func (SaleRepository) ListBetween(ctx context.Context, q sqlx.ExtContext, from, to string) ([]domain.Sale, error) {
	sales := []domain.Sale{}
	query := `SELECT ` + saleColumns + ` FROM sales WHERE sale_date >= ? AND sale_date <= ? ORDER BY sale_date, id`
	if err := sqlx.SelectContext(ctx, q, &sales, q.Rebind(query), from, to); err != nil {
		return nil, fmt.Errorf("could not list sales between %s and %s: %w", from, to, err)
	}
	return sales, nil
}

func (SaleRepository) Update(ctx context.Context, q sqlx.ExtContext, s *domain.Sale) error {
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE sales SET medication_id = ?, quantity = ?, client_id = ?, employee_id = ?, sale_date = ?,
			unit_price = ?, discount = ?, tax = ?, total = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`),
		s.MedicationID, s.Quantity, s.ClientID, s.EmployeeID, s.SaleDate,
		s.UnitPrice, s.Discount, s.Tax, s.Total, s.Status, s.ID)
	if err != nil {
		return fmt.Errorf("could not update sale %d: %w", s.ID, err)
	}
	return expectOne(res, s.ID)
}

func (SaleRepository) Delete(ctx context.Context, q sqlx.ExtContext, id int64) error {
	res, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM sales WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("could not delete sale %d: %w", id, err)
	}
	return expectOne(res, id)
}
