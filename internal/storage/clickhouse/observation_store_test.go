package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/storage"
)

func obs(company, product string, day int, qty float64) *domain.SalesObservation {
	return &domain.SalesObservation{
		Date:         time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Company:      company,
		Product:      product,
		QuantitySold: qty,
		UnitPrice:    55,
	}
}

func TestObservationStore_InsertAndGetByKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewObservationStore(conn)

	require.NoError(t, store.InsertBulk(ctx, []*domain.SalesObservation{
		obs("Amul", "Milk", 2, 120),
		obs("Amul", "Milk", 0, 100),
		obs("Amul", "Milk", 1, 110),
		obs("Heritage", "Milk", 0, 50),
	}))

	got, err := store.GetByKey(ctx, "Amul", "Milk")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Date.Before(got[i].Date), "dates sorted ascending")
	}
	assert.Equal(t, 100.0, got[0].QuantitySold)
	assert.Equal(t, 55.0, got[0].UnitPrice)

	other, err := store.GetByKey(ctx, "Nobody", "Milk")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestObservationStore_DuplicateRejection(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewObservationStore(conn)

	require.NoError(t, store.InsertBulk(ctx, []*domain.SalesObservation{obs("Amul", "Milk", 0, 100)}))

	// Existing-row duplicate fails the batch before anything lands.
	err := store.InsertBulk(ctx, []*domain.SalesObservation{
		obs("Amul", "Milk", 1, 110),
		obs("Amul", "Milk", 0, 999),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByKey(ctx, "Amul", "Milk")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// Intra-batch duplicates are caught without touching the database.
	err = store.InsertBulk(ctx, []*domain.SalesObservation{
		obs("Amul", "Butter", 0, 10),
		obs("Amul", "Butter", 0, 20),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestObservationStore_Keys(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewObservationStore(conn)

	require.NoError(t, store.InsertBulk(ctx, []*domain.SalesObservation{
		obs("Heritage", "Milk", 0, 50),
		obs("Amul", "Milk", 0, 100),
		obs("Amul", "Butter", 0, 20),
	}))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Equal(t, domain.SeriesKey{Company: "Amul", Product: "Butter"}, keys[0])
	assert.Equal(t, domain.SeriesKey{Company: "Amul", Product: "Milk"}, keys[1])
	assert.Equal(t, domain.SeriesKey{Company: "Heritage", Product: "Milk"}, keys[2])
}

func TestObservationStore_LatestDate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewObservationStore(conn)

	_, err := store.LatestDate(ctx, "Amul", "Milk")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.InsertBulk(ctx, []*domain.SalesObservation{
		obs("Amul", "Milk", 0, 100),
		obs("Amul", "Milk", 5, 105),
		obs("Amul", "Milk", 3, 103),
	}))

	latest, err := store.LatestDate(ctx, "Amul", "Milk")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-06", latest.Format("2006-01-02"))
}

func TestObservationStore_InsertBulkValidation(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewObservationStore(conn)

	assert.NoError(t, store.InsertBulk(ctx, nil))
	assert.ErrorIs(t, store.InsertBulk(ctx, []*domain.SalesObservation{nil}), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.InsertBulk(ctx, []*domain.SalesObservation{
		{Date: time.Now(), Product: "Milk"},
	}), storage.ErrInvalidInput)
}
