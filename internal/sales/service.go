package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"farmacia/m/domain"
	"farmacia/m/internal/metrics"
	"farmacia/m/internal/stock"
	"farmacia/m/internal/store"
)

var tracer = otel.Tracer("farmacia/sales")

// StockPublisher receives the ledger entries of every committed sale change.
type StockPublisher interface {
	PublishStockChanged(ctx context.Context, movements []domain.StockMovement) error
}

// Input is the editable part of a sale.
type Input struct {
	MedicationID int64
	Quantity     int64
	ClientID     *int64
	EmployeeID   *int64
	SaleDate     string
	Discount     decimal.Decimal
	Tax          decimal.Decimal
	// Status is one of the domain.Sale* states; empty keeps the stored one (completed for new sales).
	Status string
}

type Service struct {
	db          *sqlx.DB
	medications store.MedicationRepository
	sales       store.SaleRepository
	publisher   StockPublisher
	logger      logrus.FieldLogger
	now         func() time.Time
}

func NewService(db *sqlx.DB, publisher StockPublisher, logger logrus.FieldLogger) *Service {
	return &Service{
		db:          db,
		medications: store.NewMedicationRepo(),
		sales:       store.NewSaleRepo(),
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Sale, error) {
	return s.sales.Get(ctx, s.db, id)
}

func (s *Service) List(ctx context.Context, medicationID int64) ([]domain.Sale, error) {
	return s.sales.List(ctx, s.db, medicationID)
}

// Create records a sale and takes its quantity out of the medication's stock.
func (s *Service) Create(ctx context.Context, in Input) (domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "sales.Create")
	defer span.End()

	if err := validate(in); err != nil {
		return domain.Sale{}, err
	}

	sale := domain.Sale{
		Reference:    uuid.NewString(),
		MedicationID: in.MedicationID,
		Status:       domain.SaleCompleted,
	}
	s.apply(&sale, in)

	var movements []domain.StockMovement
	err := store.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		med, err := s.sellable(ctx, tx, in.MedicationID)
		if err != nil {
			return err
		}
		sale.UnitPrice = med.UnitPrice
		sale.ComputeTotal()

		if err := s.sales.Create(ctx, tx, &sale); err != nil {
			return err
		}
		movements, err = stock.Reconcile(ctx, tx, sale.ID, nil, &stock.Claim{MedicationID: sale.MedicationID, Quantity: sale.Quantity})
		return err
	})
	s.observe("create", err)
	if err != nil {
		return domain.Sale{}, err
	}

	s.publish(ctx, movements)
	s.logger.WithFields(logrus.Fields{"sale_id": sale.ID, "medication_id": sale.MedicationID, "quantity": sale.Quantity}).Info("sale created")
	return sale, nil
}

// Update edits a sale, moving its stock claim to the new medication and quantity.
func (s *Service) Update(ctx context.Context, id int64, in Input) (domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "sales.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("sale.id", id))

	if err := validate(in); err != nil {
		return domain.Sale{}, err
	}

	var (
		sale      domain.Sale
		movements []domain.StockMovement
	)
	err := store.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		current, err := s.sales.Get(ctx, tx, id)
		if err != nil {
			return err
		}

		sale = current
		s.apply(&sale, in)
		if in.MedicationID != current.MedicationID {
			med, err := s.sellable(ctx, tx, in.MedicationID)
			if err != nil {
				return err
			}
			sale.MedicationID = med.ID
			sale.UnitPrice = med.UnitPrice
		}
		sale.ComputeTotal()

		movements, err = stock.Reconcile(ctx, tx, sale.ID,
			&stock.Claim{MedicationID: current.MedicationID, Quantity: current.Quantity},
			&stock.Claim{MedicationID: sale.MedicationID, Quantity: sale.Quantity})
		if err != nil {
			return err
		}
		if err := s.sales.Update(ctx, tx, &sale); err != nil {
			return err
		}
		sale, err = s.sales.Get(ctx, tx, id)
		return err
	})
	s.observe("update", err)
	if err != nil {
		return domain.Sale{}, err
	}

	s.publish(ctx, movements)
	s.logger.WithFields(logrus.Fields{"sale_id": sale.ID, "medication_id": sale.MedicationID, "quantity": sale.Quantity}).Info("sale updated")
	return sale, nil
}

// Delete returns the sale's quantity to stock and removes it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "sales.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("sale.id", id))

	var movements []domain.StockMovement
	err := store.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		current, err := s.sales.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		movements, err = stock.Reconcile(ctx, tx, current.ID, &stock.Claim{MedicationID: current.MedicationID, Quantity: current.Quantity}, nil)
		if err != nil {
			return err
		}
		return s.sales.Delete(ctx, tx, id)
	})
	s.observe("delete", err)
	if err != nil {
		return err
	}

	s.publish(ctx, movements)
	s.logger.WithField("sale_id", id).Info("sale deleted")
	return nil
}

// Report totals the sales dated between from and to. A zero to means today and a zero from
// means the first day of to's month.
func (s *Service) Report(ctx context.Context, from, to time.Time) (domain.SalesReport, error) {
	ctx, span := tracer.Start(ctx, "sales.Report")
	defer span.End()

	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, to.Location())
	}
	first, last := from.Format(time.DateOnly), to.Format(time.DateOnly)
	if first > last {
		return domain.SalesReport{}, &domain.FieldError{Field: "from", Message: "from must not be after to"}
	}
	span.SetAttributes(attribute.String("report.from", first), attribute.String("report.to", last))

	list, err := s.sales.ListBetween(ctx, s.db, first, last)
	if err != nil {
		return domain.SalesReport{}, err
	}
	return domain.NewSalesReport(first, last, list), nil
}

func validate(in Input) error {
	if in.Status != "" && !domain.ValidSaleStatus(in.Status) {
		return &domain.FieldError{Field: "status", Message: "unknown sale status"}
	}
	return nil
}

func (s *Service) apply(sale *domain.Sale, in Input) {
	sale.Quantity = in.Quantity
	sale.ClientID = in.ClientID
	sale.EmployeeID = in.EmployeeID
	sale.Discount = in.Discount
	sale.Tax = in.Tax
	if in.Status != "" {
		sale.Status = in.Status
	}
	if in.SaleDate != "" {
		sale.SaleDate = in.SaleDate
	}
	if sale.SaleDate == "" {
		sale.SaleDate = s.now().Format(time.DateOnly)
	}
}

// sellable loads a medication that a sale may point at.
func (s *Service) sellable(ctx context.Context, tx *sqlx.Tx, medicationID int64) (domain.Medication, error) {
	med, err := s.medications.Get(ctx, tx, medicationID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Medication{}, &domain.FieldError{Field: "medication_id", Message: "medication does not exist", Err: err}
	}
	if err != nil {
		return domain.Medication{}, err
	}
	if !med.Active {
		return domain.Medication{}, &domain.FieldError{Field: "medication_id", Message: "medication is inactive", Err: domain.ErrMedicationInactive}
	}
	return med, nil
}

func (s *Service) publish(ctx context.Context, movements []domain.StockMovement) {
	if s.publisher == nil || len(movements) == 0 {
		return
	}
	if err := s.publisher.PublishStockChanged(ctx, movements); err != nil {
		s.logger.WithError(err).Warn("could not publish stock changes")
	}
}

func (s *Service) observe(operation string, err error) {
	var insufficient *domain.InsufficientStockError
	switch {
	case err == nil:
		metrics.SaleOperations.WithLabelValues(operation, "ok").Inc()
	case errors.As(err, &insufficient):
		metrics.StockRejections.Inc()
		metrics.SaleOperations.WithLabelValues(operation, "insufficient_stock").Inc()
	default:
		metrics.SaleOperations.WithLabelValues(operation, "error").Inc()
	}
}
