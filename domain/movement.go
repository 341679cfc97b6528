package domain

type MovementKind string

const (
	MovementInitial    MovementKind = "initial"
	MovementAdjustment MovementKind = "adjustment"
	MovementSale       MovementKind = "sale"
	MovementSaleEdit   MovementKind = "sale_edit"
	MovementSaleDelete MovementKind = "sale_delete"
)

// StockMovement is one signed change to a medication's on-hand quantity.
type StockMovement struct {
	ID            int64        `db:"id" json:"id"`
	MedicationID  int64        `db:"medication_id" json:"medication_id"`
	SaleID        *int64       `db:"sale_id" json:"sale_id,omitempty"`
	Kind          MovementKind `db:"kind" json:"kind"`
	Delta         int64        `db:"delta" json:"delta"`
	QuantityAfter int64        `db:"quantity_after" json:"quantity_after"`
	CreatedAt     string       `db:"created_at" json:"created_at"`

	// MinStock is the medication threshold at the time of the change; not persisted.
	MinStock int64 `db:"-" json:"-"`
}
