package medications

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"farmacia/m/domain"
	"farmacia/m/internal/stock"
	"farmacia/m/internal/store"
)

const unnamed = "N/A"

type StockPublisher interface {
	PublishStockChanged(ctx context.Context, movements []domain.StockMovement) error
}

// Input carries the editable fields of a medication. Nil pointers keep the stored value on
// update; on create they fall back to zero stock, DefaultMinStock, a zero price and active.
type Input struct {
	GenericName          string
	Presentation         string
	Dose                 string
	Route                string
	LabCode              string
	SanitaryRegistration string
	Contraindications    string
	Precautions          string
	RequiresPrescription bool
	Quantity             *int64
	MinStock             *int64
	UnitPrice            *decimal.Decimal
	Active               *bool
	ExpiryDate           string
}

type Detail struct {
	domain.Medication
	StockStatus domain.StockStatus `json:"stock_status"`
}

type ListResult struct {
	Medications []domain.Medication `json:"medications"`
	Total       int                 `json:"total_medications"`
	Active      int                 `json:"active_medications"`
	Inactive    int                 `json:"inactive_medications"`
}

type Service struct {
	db          *sqlx.DB
	medications store.MedicationRepository
	movements   store.MovementRepository
	publisher   StockPublisher
	logger      logrus.FieldLogger
}

func NewService(db *sqlx.DB, publisher StockPublisher, logger logrus.FieldLogger) *Service {
	return &Service{
		db:          db,
		medications: store.NewMedicationRepo(),
		movements:   store.NewMovementRepo(),
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *Service) Create(ctx context.Context, in Input) (domain.Medication, error) {
	if err := validate(in); err != nil {
		return domain.Medication{}, err
	}

	med := domain.Medication{Active: true, MinStock: domain.DefaultMinStock}
	apply(&med, in)
	if in.Quantity != nil {
		med.Quantity = *in.Quantity
	}

	var opening *domain.StockMovement
	err := store.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.checkRegistration(ctx, tx, med.SanitaryRegistration, 0); err != nil {
			return err
		}
		if err := s.medications.Create(ctx, tx, &med); err != nil {
			return duplicateRegistration(err)
		}
		var err error
		opening, err = stock.Opening(ctx, tx, med)
		return err
	})
	if err != nil {
		return domain.Medication{}, err
	}

	s.publish(ctx, opening)
	s.logger.WithFields(logrus.Fields{"medication_id": med.ID, "quantity": med.Quantity}).Info("medication created")
	return med, nil
}

func (s *Service) List(ctx context.Context, filter store.MedicationFilter) (ListResult, error) {
	meds, err := s.medications.List(ctx, s.db, filter)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Medications: meds, Total: len(meds)}
	for _, m := range meds {
		if m.Active {
			result.Active++
		} else {
			result.Inactive++
		}
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	med, err := s.medications.Get(ctx, s.db, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Medication: med, StockStatus: med.StockStatus()}, nil
}

// Update edits a medication. A different quantity is booked as a manual adjustment; an absent
// one leaves stock untouched.
func (s *Service) Update(ctx context.Context, id int64, in Input) (domain.Medication, error) {
	if err := validate(in); err != nil {
		return domain.Medication{}, err
	}

	var (
		med        domain.Medication
		adjustment *domain.StockMovement
	)
	err := store.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		current, err := s.medications.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		med = current
		apply(&med, in)

		if err := s.checkRegistration(ctx, tx, med.SanitaryRegistration, id); err != nil {
			return err
		}
		if err := s.medications.Update(ctx, tx, &med); err != nil {
			return duplicateRegistration(err)
		}
		if in.Quantity != nil {
			if adjustment, err = stock.Adjust(ctx, tx, id, current.Quantity, *in.Quantity); err != nil {
				return err
			}
		}
		med, err = s.medications.Get(ctx, tx, id)
		return err
	})
	if err != nil {
		return domain.Medication{}, err
	}

	s.publish(ctx, adjustment)
	s.logger.WithField("medication_id", id).Info("medication updated")
	return med, nil
}

// ToggleActive flips the active flag and returns the updated medication.
func (s *Service) ToggleActive(ctx context.Context, id int64) (domain.Medication, error) {
	var med domain.Medication
	err := store.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		current, err := s.medications.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.medications.SetActive(ctx, tx, id, !current.Active); err != nil {
			return err
		}
		med, err = s.medications.Get(ctx, tx, id)
		return err
	})
	if err != nil {
		return domain.Medication{}, err
	}

	s.logger.WithFields(logrus.Fields{"medication_id": id, "active": med.Active}).Info("medication state changed")
	return med, nil
}

// Delete removes a medication that no sale references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := store.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.medications.Get(ctx, tx, id); err != nil {
			return err
		}
		inUse, err := s.medications.HasSales(ctx, tx, id)
		if err != nil {
			return err
		}
		if inUse {
			return domain.ErrMedicationInUse
		}
		return s.medications.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.logger.WithField("medication_id", id).Info("medication deleted")
	return nil
}

func (s *Service) Movements(ctx context.Context, id int64) ([]domain.StockMovement, error) {
	if _, err := s.medications.Get(ctx, s.db, id); err != nil {
		return nil, err
	}
	return s.movements.ListByMedication(ctx, s.db, id)
}

func (s *Service) StockReport(ctx context.Context) (domain.StockReport, error) {
	meds, err := s.medications.List(ctx, s.db, store.MedicationFilter{})
	if err != nil {
		return domain.StockReport{}, err
	}
	return domain.NewStockReport(meds), nil
}

func (s *Service) checkRegistration(ctx context.Context, tx *sqlx.Tx, registration *string, excludeID int64) error {
	if registration == nil {
		return nil
	}
	taken, err := s.medications.SanitaryRegistrationTaken(ctx, tx, *registration, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return duplicateRegistration(domain.ErrDuplicate)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, mv *domain.StockMovement) {
	if s.publisher == nil || mv == nil {
		return
	}
	if err := s.publisher.PublishStockChanged(ctx, []domain.StockMovement{*mv}); err != nil {
		s.logger.WithError(err).Warn("could not publish stock change")
	}
}

func validate(in Input) error {
	switch {
	case in.Quantity != nil && *in.Quantity < 0:
		return &domain.FieldError{Field: "quantity", Message: "quantity cannot be negative"}
	case in.MinStock != nil && *in.MinStock < 0:
		return &domain.FieldError{Field: "min_stock", Message: "minimum stock cannot be negative"}
	case in.UnitPrice != nil && in.UnitPrice.IsNegative():
		return &domain.FieldError{Field: "unit_price", Message: "unit price cannot be negative"}
	}
	return nil
}

// apply copies the descriptive fields and fills defaults. Quantity is left to the caller.
func apply(m *domain.Medication, in Input) {
	m.GenericName = strings.TrimSpace(in.GenericName)
	if m.GenericName == "" {
		m.GenericName = unnamed
	}
	m.Presentation = strings.TrimSpace(in.Presentation)
	m.Dose = strings.TrimSpace(in.Dose)
	m.Route = strings.TrimSpace(in.Route)
	m.LabCode = strings.TrimSpace(in.LabCode)
	m.SanitaryRegistration = optional(in.SanitaryRegistration)
	m.Contraindications = in.Contraindications
	m.Precautions = in.Precautions
	m.RequiresPrescription = in.RequiresPrescription
	if in.MinStock != nil {
		m.MinStock = *in.MinStock
		if m.MinStock == 0 {
			m.MinStock = domain.DefaultMinStock
		}
	}
	if in.UnitPrice != nil {
		m.UnitPrice = *in.UnitPrice
	}
	if in.Active != nil {
		m.Active = *in.Active
	}
	m.ExpiryDate = optional(in.ExpiryDate)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func duplicateRegistration(err error) error {
	if errors.Is(err, domain.ErrDuplicate) {
		return &domain.FieldError{
			Field:   "sanitary_registration",
			Message: "a medication with this sanitary registration already exists",
			Err:     err,
		}
	}
	return err
}
