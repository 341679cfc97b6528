// Package stock keeps a medication's on-hand quantity consistent with the sales that reference it.
//
// All three sale lifecycle events go through Reconcile. Debits are a single conditional UPDATE, so the
// check and the decrement cannot be separated by a concurrent request, and every change is written to
// the stock_movements ledger inside the caller's transaction.
package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"farmacia/m/domain"
	"farmacia/m/internal/store"
)

var tracer = otel.Tracer("farmacia/stock")

// Claim is the stock a sale holds against one medication.
type Claim struct {
	MedicationID int64
	Quantity     int64
}

// Reconcile moves the on-hand stock held by a sale from prev to next.
//
// prev is nil for a new sale and next is nil for a deleted one. It must run inside tx together with the
// sale write: when it fails nothing it did may be committed.
func Reconcile(ctx context.Context, tx *sqlx.Tx, saleID int64, prev, next *Claim) ([]domain.StockMovement, error) {
	ctx, span := tracer.Start(ctx, "stock.Reconcile")
	defer span.End()
	span.SetAttributes(attribute.Int64("sale.id", saleID))

	var movements []domain.StockMovement
	apply := func(medicationID, delta int64, kind domain.MovementKind) error {
		var (
			mv  domain.StockMovement
			err error
		)
		if delta < 0 {
			mv, err = debit(ctx, tx, medicationID, -delta)
		} else {
			mv, err = credit(ctx, tx, medicationID, delta)
		}
		if err != nil {
			return err
		}
		mv.Kind = kind
		if saleID > 0 {
			id := saleID
			mv.SaleID = &id
		}
		if err := store.NewMovementRepo().Record(ctx, tx, &mv); err != nil {
			return err
		}
		movements = append(movements, mv)
		return nil
	}

	var err error
	switch {
	case prev == nil && next == nil:
		return nil, nil
	case prev == nil:
		err = apply(next.MedicationID, -next.Quantity, domain.MovementSale)
	case next == nil:
		err = apply(prev.MedicationID, prev.Quantity, domain.MovementSaleDelete)
	case prev.MedicationID == next.MedicationID:
		if delta := next.Quantity - prev.Quantity; delta != 0 {
			err = apply(next.MedicationID, -delta, domain.MovementSaleEdit)
		}
	default:
		// Restore first, then debit: if the debit fails the caller rolls back both.
		if err = apply(prev.MedicationID, prev.Quantity, domain.MovementSaleEdit); err == nil {
			err = apply(next.MedicationID, -next.Quantity, domain.MovementSaleEdit)
		}
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return movements, nil
}

type stockRow struct {
	Quantity int64 `db:"quantity"`
	MinStock int64 `db:"min_stock"`
}

// debit takes qty out of on-hand only if at least qty is available.
func debit(ctx context.Context, tx *sqlx.Tx, medicationID, qty int64) (domain.StockMovement, error) {
	var row stockRow
	err := tx.GetContext(ctx, &row, tx.Rebind(`
		UPDATE medications SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity >= ?
		RETURNING quantity, min_stock`), qty, medicationID, qty)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StockMovement{}, insufficient(ctx, tx, medicationID)
	}
	if err != nil {
		return domain.StockMovement{}, fmt.Errorf("could not debit medication %d: %w", medicationID, err)
	}
	return domain.StockMovement{MedicationID: medicationID, Delta: -qty, QuantityAfter: row.Quantity, MinStock: row.MinStock}, nil
}

func credit(ctx context.Context, tx *sqlx.Tx, medicationID, qty int64) (domain.StockMovement, error) {
	var row stockRow
	err := tx.GetContext(ctx, &row, tx.Rebind(`
		UPDATE medications SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING quantity, min_stock`), qty, medicationID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StockMovement{}, fmt.Errorf("could not credit medication %d: %w", medicationID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.StockMovement{}, fmt.Errorf("could not credit medication %d: %w", medicationID, err)
	}
	return domain.StockMovement{MedicationID: medicationID, Delta: qty, QuantityAfter: row.Quantity, MinStock: row.MinStock}, nil
}

// insufficient explains a rejected debit: either the medication is gone or its stock is short.
func insufficient(ctx context.Context, tx *sqlx.Tx, medicationID int64) error {
	var available int64
	err := tx.GetContext(ctx, &available, tx.Rebind(`SELECT quantity FROM medications WHERE id = ?`), medicationID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("could not debit medication %d: %w", medicationID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("could not read stock of medication %d: %w", medicationID, err)
	}
	return &domain.InsufficientStockError{MedicationID: medicationID, Available: available}
}
