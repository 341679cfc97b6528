package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("duplicate value")
	ErrMedicationInactive = errors.New("medication is inactive")
	ErrMedicationInUse    = errors.New("medication is referenced by sales")
	ErrStockChanged       = errors.New("stock changed while it was being edited")
)

// InsufficientStockError rejects a debit larger than the on-hand quantity.
type InsufficientStockError struct {
	MedicationID int64
	Available    int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock, available: %d", e.Available)
}

// FieldError is a validation failure tied to one input field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
