// Package store holds the sqlx repositories. Every method takes a sqlx.ExtContext so the
// same code runs against the pool or inside a transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"farmacia/m/domain"
	"farmacia/m/internal/database"
)

// WithTx runs fn in a transaction, committing on nil error.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func classify(err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", domain.ErrDuplicate, err)
	}
	return err
}

func expectOne(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("record %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
