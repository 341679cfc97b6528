package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"farmacia/m/domain"
)

const medicationColumns = `id, generic_name, presentation, dose, route, lab_code, sanitary_registration,
	contraindications, precautions, requires_prescription, quantity, min_stock, unit_price, active,
	expiry_date, created_at, updated_at`

type MedicationFilter struct {
	Active *bool
	Search string
}

type MedicationRepository struct{}

func NewMedicationRepo() MedicationRepository {
	return MedicationRepository{}
}

func (MedicationRepository) Create(ctx context.Context, q sqlx.ExtContext, m *domain.Medication) error {
	row := q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO medications (generic_name, presentation, dose, route, lab_code, sanitary_registration,
			contraindications, precautions, requires_prescription, quantity, min_stock, unit_price, active, expiry_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at`),
		m.GenericName, m.Presentation, m.Dose, m.Route, m.LabCode, m.SanitaryRegistration,
		m.Contraindications, m.Precautions, m.RequiresPrescription, m.Quantity, m.MinStock, m.UnitPrice, m.Active, m.ExpiryDate)
	if err := row.Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return fmt.Errorf("could not save medication: %w", classify(err))
	}
	return nil
}

func (MedicationRepository) Get(ctx context.Context, q sqlx.ExtContext, id int64) (domain.Medication, error) {
	var m domain.Medication
	err := sqlx.GetContext(ctx, q, &m, q.Rebind(`SELECT `+medicationColumns+` FROM medications WHERE id = ?`), id)
	if err != nil {
		return domain.Medication{}, fmt.Errorf("could not get medication %d: %w", id, notFound(err))
	}
	return m, nil
}

func (MedicationRepository) List(ctx context.Context, q sqlx.ExtContext, filter MedicationFilter) ([]domain.Medication, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Active != nil {
		clauses = append(clauses, "active = ?")
		args = append(args, *filter.Active)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		clauses = append(clauses, "LOWER(generic_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(search)+"%")
	}

	query := `SELECT ` + medicationColumns + ` FROM medications`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY generic_name, id"

	meds := []domain.Medication{}
	if err := sqlx.SelectContext(ctx, q, &meds, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("could not list medications: %w", err)
	}
	return meds, nil
}

// Update rewrites the descriptive columns. Quantity only changes through the stock package.
func (MedicationRepository) Update(ctx context.Context, q sqlx.ExtContext, m *domain.Medication) error {
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE medications SET generic_name = ?, presentation = ?, dose = ?, route = ?, lab_code = ?,
			sanitary_registration = ?, contraindications = ?, precautions = ?, requires_prescription = ?,
			min_stock = ?, unit_price = ?, active = ?, expiry_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`),
		m.GenericName, m.Presentation, m.Dose, m.Route, m.LabCode, m.SanitaryRegistration,
		m.Contraindications, m.Precautions, m.RequiresPrescription, m.MinStock, m.UnitPrice,
		m.Active, m.ExpiryDate, m.ID)
	if err != nil {
		return fmt.Errorf("could not update medication %d: %w", m.ID, classify(err))
	}
	return expectOne(res, m.ID)
}

func (MedicationRepository) SetActive(ctx context.Context, q sqlx.ExtContext, id int64, active bool) error {
	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE medications SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`), active, id)
	if err != nil {
		return fmt.Errorf("could not change medication %d state: %w", id, err)
	}
	return expectOne(res, id)
}

func (MedicationRepository) Delete(ctx context.Context, q sqlx.ExtContext, id int64) error {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM stock_movements WHERE medication_id = ?`), id); err != nil {
		return fmt.Errorf("could not delete movements of medication %d: %w", id, err)
	}
	res, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM medications WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("could not delete medication %d: %w", id, err)
	}
	return expectOne(res, id)
}

// SanitaryRegistrationTaken ignores the medication identified by excludeID.
func (MedicationRepository) SanitaryRegistrationTaken(ctx context.Context, q sqlx.ExtContext, registration string, excludeID int64) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists,
		q.Rebind(`SELECT EXISTS (SELECT 1 FROM medications WHERE sanitary_registration = ? AND id <> ?)`), registration, excludeID)
	if err != nil {
		return false, fmt.Errorf("could not check sanitary registration: %w", err)
	}
	return exists, nil
}

func (MedicationRepository) HasSales(ctx context.Context, q sqlx.ExtContext, id int64) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, q.Rebind(`SELECT EXISTS (SELECT 1 FROM sales WHERE medication_id = ?)`), id)
	if err != nil {
		return false, fmt.Errorf("could not check sales of medication %d: %w", id, err)
	}
	return exists, nil
}
