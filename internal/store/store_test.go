package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmacia/m/domain"
	"farmacia/m/internal/store"
	"farmacia/m/internal/testdb"
)

func newMedication(name, registration string) domain.Medication {
	m := domain.Medication{
		GenericName: name,
		Quantity:    5,
		MinStock:    domain.DefaultMinStock,
		UnitPrice:   decimal.RequireFromString("3.25"),
		Active:      true,
	}
	if registration != "" {
		m.SanitaryRegistration = &registration
	}
	return m
}

func TestMedicationRoundTrip(t *testing.T) {
	db := testdb.New(t)
	repo := store.NewMedicationRepo()
	ctx := context.Background()

	expiry := "2026-01-31"
	m := newMedication("Ibuprofeno", "INVIMA-100")
	m.ExpiryDate = &expiry
	m.RequiresPrescription = true
	require.NoError(t, repo.Create(ctx, db, &m))
	require.NotZero(t, m.ID)
	assert.NotEmpty(t, m.CreatedAt)

	got, err := repo.Get(ctx, db, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ibuprofeno", got.GenericName)
	assert.True(t, got.RequiresPrescription)
	assert.True(t, got.Active)
	assert.True(t, m.UnitPrice.Equal(got.UnitPrice))
	require.NotNil(t, got.ExpiryDate)
	assert.Equal(t, expiry, *got.ExpiryDate)

	got.GenericName = "Ibuprofeno 400"
	got.Quantity = 999
	require.NoError(t, repo.Update(ctx, db, &got))

	updated, err := repo.Get(ctx, db, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ibuprofeno 400", updated.GenericName)
	assert.Equal(t, int64(5), updated.Quantity, "Update must not touch quantity")
}

func TestDuplicateSanitaryRegistration(t *testing.T) {
	db := testdb.New(t)
	repo := store.NewMedicationRepo()
	ctx := context.Background()

	first := newMedication("Naproxeno", "INVIMA-200")
	require.NoError(t, repo.Create(ctx, db, &first))

	second := newMedication("Naproxeno sodico", "INVIMA-200")
	assert.ErrorIs(t, repo.Create(ctx, db, &second), domain.ErrDuplicate)

	taken, err := repo.SanitaryRegistrationTaken(ctx, db, "INVIMA-200", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.SanitaryRegistrationTaken(ctx, db, "INVIMA-200", first.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	// medications without a registration never collide
	a, b := newMedication("A", ""), newMedication("B", "")
	require.NoError(t, repo.Create(ctx, db, &a))
	require.NoError(t, repo.Create(ctx, db, &b))
}

func TestMedicationNotFound(t *testing.T) {
	db := testdb.New(t)
	repo := store.NewMedicationRepo()
	ctx := context.Background()

	_, err := repo.Get(ctx, db, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.SetActive(ctx, db, 1, false), domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, db, 1), domain.ErrNotFound)
}

func TestSalesAndHasSales(t *testing.T) {
	db := testdb.New(t)
	meds := store.NewMedicationRepo()
	sales := store.NewSaleRepo()
	ctx := context.Background()

	m := newMedication("Loratadina", "")
	require.NoError(t, meds.Create(ctx, db, &m))

	inUse, err := meds.HasSales(ctx, db, m.ID)
	require.NoError(t, err)
	assert.False(t, inUse)

	s := domain.Sale{
		Reference:    "ref-1",
		MedicationID: m.ID,
		Quantity:     2,
		SaleDate:     "2024-03-15",
		UnitPrice:    m.UnitPrice,
		Status:       domain.SaleCompleted,
	}
	s.ComputeTotal()
	require.NoError(t, sales.Create(ctx, db, &s))

	inUse, err = meds.HasSales(ctx, db, m.ID)
	require.NoError(t, err)
	assert.True(t, inUse)

	got, err := sales.Get(ctx, db, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "ref-1", got.Reference)
	assert.True(t, decimal.RequireFromString("6.5").Equal(got.Total))
	assert.Nil(t, got.ClientID)

	dup := s
	assert.ErrorIs(t, sales.Create(ctx, db, &dup), domain.ErrDuplicate)

	require.NoError(t, sales.Delete(ctx, db, s.ID))
	assert.ErrorIs(t, sales.Delete(ctx, db, s.ID), domain.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := testdb.New(t)
	repo := store.NewMedicationRepo()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		m := newMedication("Efimero", "")
		if err := repo.Create(ctx, tx, &m); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	meds, err := repo.List(ctx, db, store.MedicationFilter{})
	require.NoError(t, err)
	assert.Empty(t, meds)
}

func TestListSalesBetween(t *testing.T) {
	db := testdb.New(t)
	meds := store.NewMedicationRepo()
	sales := store.NewSaleRepo()
	ctx := context.Background()

	m := newMedication("Ranitidina", "")
	require.NoError(t, meds.Create(ctx, db, &m))

	for i, date := range []string{"2024-03-20", "2024-02-28", "2024-03-01", "2024-04-01"} {
		s := domain.Sale{
			Reference:    fmt.Sprintf("ref-%d", i),
			MedicationID: m.ID,
			Quantity:     1,
			SaleDate:     date,
			UnitPrice:    m.UnitPrice,
			Status:       domain.SaleCompleted,
		}
		s.ComputeTotal()
		require.NoError(t, sales.Create(ctx, db, &s))
	}

	got, err := sales.ListBetween(ctx, db, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-01", got[0].SaleDate)
	assert.Equal(t, "2024-03-20", got[1].SaleDate)

	none, err := sales.ListBetween(ctx, db, "2023-01-01", "2023-12-31")
	require.NoError(t, err)
	assert.Empty(t, none)
}
