// Package seed loads a medication catalog from CSV at startup.
package seed

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"farmacia/m/domain"
	"farmacia/m/internal/stock"
	"farmacia/m/internal/store"
)

var requiredColumns = []string{"generic_name", "sanitary_registration"}

// LoadMedications ingests the CSV at path into the medications table. Rows are keyed by sanitary
// registration: rows already present are skipped, so the file can be loaded on every start.
func LoadMedications(ctx context.Context, db *sqlx.DB, path string, logger logrus.FieldLogger) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("unable to open medication catalog %s: %w", path, err)
	}
	defer file.Close()

	return Load(ctx, db, file, logger)
}

// Load reads a header row followed by one medication per row.
func Load(ctx context.Context, db *sqlx.DB, r io.Reader, logger logrus.FieldLogger) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("unable to read medication header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return 0, fmt.Errorf("medication catalog is missing column %q", name)
		}
	}

	rows := 0
	err = store.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		line := 1
		for {
			record, err := reader.Read()
			if err == io.EOF {
				return nil
			}
			line++
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.WithError(err).WithField("line", line).Warn("unable to read medication row")
				continue
			}
			if err != nil {
				return fmt.Errorf("unable to read medication catalog: %w", err)
			}

			med, err := parse(record, columns)
			if err != nil {
				logger.WithError(err).WithField("line", line).Warn("skipping medication row")
				continue
			}

			inserted, err := insert(ctx, tx, &med)
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}
			if _, err := stock.Opening(ctx, tx, med); err != nil {
				return err
			}
			rows++
		}
	})
	if err != nil {
		return 0, err
	}

	logger.WithField("rows", rows).Info("seeded medication catalog")
	return rows, nil
}

func parse(record []string, columns map[string]int) (domain.Medication, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	med := domain.Medication{
		GenericName:          field("generic_name"),
		Presentation:         field("presentation"),
		Dose:                 field("dose"),
		Route:                field("route"),
		LabCode:              field("lab_code"),
		RequiresPrescription: isTrue(field("requires_prescription")),
		MinStock:             domain.DefaultMinStock,
		UnitPrice:            decimal.Zero,
		Active:               true,
	}
	if med.GenericName == "" {
		return med, errors.New("generic_name is empty")
	}

	registration := field("sanitary_registration")
	if registration == "" {
		return med, errors.New("sanitary_registration is empty")
	}
	med.SanitaryRegistration = &registration

	var err error
	if v := field("quantity"); v != "" {
		if med.Quantity, err = strconv.ParseInt(v, 10, 64); err != nil || med.Quantity < 0 {
			return med, fmt.Errorf("invalid quantity %q", v)
		}
	}
	if v := field("min_stock"); v != "" {
		if med.MinStock, err = strconv.ParseInt(v, 10, 64); err != nil || med.MinStock < 0 {
			return med, fmt.Errorf("invalid min_stock %q", v)
		}
	}
	if v := field("unit_price"); v != "" {
		if med.UnitPrice, err = decimal.NewFromString(v); err != nil || med.UnitPrice.IsNegative() {
			return med, fmt.Errorf("invalid unit_price %q", v)
		}
	}
	if v := field("expiry_date"); v != "" {
		med.ExpiryDate = &v
	}
	return med, nil
}

func insert(ctx context.Context, tx *sqlx.Tx, m *domain.Medication) (bool, error) {
	err := tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO medications (generic_name, presentation, dose, route, lab_code, sanitary_registration,
			requires_prescription, quantity, min_stock, unit_price, active, expiry_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (sanitary_registration) DO NOTHING
		RETURNING id`),
		m.GenericName, m.Presentation, m.Dose, m.Route, m.LabCode, m.SanitaryRegistration,
		m.RequiresPrescription, m.Quantity, m.MinStock, m.UnitPrice, m.Active, m.ExpiryDate).Scan(&m.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("unable to insert medication %s: %w", m.GenericName, err)
	}
	return true, nil
}

func isTrue(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "si", "sí":
		return true
	}
	return false
}
