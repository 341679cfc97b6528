package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"farmacia/m/domain"
)

type MovementRepository struct{}

func NewMovementRepo() MovementRepository {
	return MovementRepository{}
}

func (MovementRepository) Record(ctx context.Context, q sqlx.ExtContext, mv *domain.StockMovement) error {
	row := q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO stock_movements (medication_id, sale_id, kind, delta, quantity_after)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, created_at`),
		mv.MedicationID, mv.SaleID, string(mv.Kind), mv.Delta, mv.QuantityAfter)
	if err := row.Scan(&mv.ID, &mv.CreatedAt); err != nil {
		return fmt.Errorf("could not record stock movement: %w", err)
	}
	return nil
}

// ListByMedication returns the ledger newest first.
func (MovementRepository) ListByMedication(ctx context.Context, q sqlx.ExtContext, medicationID int64) ([]domain.StockMovement, error) {
	movements := []domain.StockMovement{}
	err := sqlx.SelectContext(ctx, q, &movements, q.Rebind(`
		SELECT id, medication_id, sale_id, kind, delta, quantity_after, created_at
		FROM stock_movements WHERE medication_id = ? ORDER BY id DESC`), medicationID)
	if err != nil {
		return nil, fmt.Errorf("could not list stock movements: %w", err)
	}
	return movements, nil
}
