package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"farmacia/m/domain"
	"farmacia/m/internal/store"
)

// Opening records the starting quantity of a freshly created medication.
func Opening(ctx context.Context, tx sqlx.ExtContext, m domain.Medication) (*domain.StockMovement, error) {
	if m.Quantity == 0 {
		return nil, nil
	}
	mv := domain.StockMovement{
		MedicationID:  m.ID,
		Kind:          domain.MovementInitial,
		Delta:         m.Quantity,
		QuantityAfter: m.Quantity,
		MinStock:      m.MinStock,
	}
	if err := store.NewMovementRepo().Record(ctx, tx, &mv); err != nil {
		return nil, err
	}
	return &mv, nil
}

// Adjust sets a medication's on-hand quantity from a manual count.
//
// from is the quantity the caller read; if a sale moved stock since then the adjustment is refused
// with domain.ErrStockChanged rather than overwriting it.
func Adjust(ctx context.Context, tx *sqlx.Tx, medicationID, from, to int64) (*domain.StockMovement, error) {
	if to < 0 {
		return nil, &domain.FieldError{Field: "quantity", Message: "quantity cannot be negative"}
	}
	if from == to {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "stock.Adjust")
	defer span.End()

	var row stockRow
	err := tx.GetContext(ctx, &row, tx.Rebind(`
		UPDATE medications SET quantity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity = ?
		RETURNING quantity, min_stock`), to, medicationID, from)
	if errors.Is(err, sql.ErrNoRows) {
		span.RecordError(domain.ErrStockChanged)
		return nil, fmt.Errorf("could not adjust medication %d: %w", medicationID, domain.ErrStockChanged)
	}
	if err != nil {
		return nil, fmt.Errorf("could not adjust medication %d: %w", medicationID, err)
	}

	mv := domain.StockMovement{
		MedicationID:  medicationID,
		Kind:          domain.MovementAdjustment,
		Delta:         to - from,
		QuantityAfter: row.Quantity,
		MinStock:      row.MinStock,
	}
	if err := store.NewMovementRepo().Record(ctx, tx, &mv); err != nil {
		return nil, err
	}
	return &mv, nil
}
