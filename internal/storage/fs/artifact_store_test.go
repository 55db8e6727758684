package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/storage"
)

func testArtifact(company, product string) *domain.TrainedModelArtifact {
	mape := 4.2
	return &domain.TrainedModelArtifact{
		Company:          company,
		Product:          product,
		TrainedAt:        time.Date(2025, time.April, 1, 10, 30, 0, 0, time.UTC),
		TrainingRowCount: 400,
		DateRange: domain.DateRange{
			Start: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
		},
		Accuracy: domain.AccuracyMetrics{MAE: 12.5, RMSE: 18.1, MAPE: &mape},
		Seasonality: domain.SeasonalityConfig{
			Mode:   domain.SeasonalityAdditive,
			Weekly: true, Monthly: true, Yearly: true,
		},
		ModelState: []byte(`{"trend":0.8,"level":412.5}`),
	}
}

func newStore(t *testing.T) *ArtifactStore {
	t.Helper()
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	artifact := testArtifact("Amul", "Milk")

	require.NoError(t, store.Save(ctx, artifact))

	got, err := store.Get(ctx, "Amul", "Milk")
	require.NoError(t, err)
	assert.Equal(t, artifact.Company, got.Company)
	assert.Equal(t, artifact.Product, got.Product)
	assert.True(t, got.TrainedAt.Equal(artifact.TrainedAt))
	assert.Equal(t, 400, got.TrainingRowCount)
	assert.True(t, got.DateRange.Start.Equal(artifact.DateRange.Start))
	assert.True(t, got.DateRange.End.Equal(artifact.DateRange.End))
	assert.Equal(t, artifact.Accuracy.MAE, got.Accuracy.MAE)
	require.NotNil(t, got.Accuracy.MAPE)
	assert.InDelta(t, 4.2, *got.Accuracy.MAPE, 1e-12)
	assert.Nil(t, got.Accuracy.MASE)
	assert.Equal(t, artifact.Seasonality, got.Seasonality)
	// Model state round-trips byte for byte.
	assert.Equal(t, artifact.ModelState, got.ModelState)
}

func TestEntryNaming(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewArtifactStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, testArtifact("Mother Dairy", "Ice Cream")))

	_, err = os.Stat(filepath.Join(dir, "Mother_Dairy_Ice_Cream.json"))
	assert.NoError(t, err, "spaces in company/product become underscores")
}

func TestGet_NotFound(t *testing.T) {
	store := newStore(t)
	_, err := store.Get(context.Background(), "Nobody", "Milk")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSave_ReplacesExisting(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	first := testArtifact("Amul", "Milk")
	require.NoError(t, store.Save(ctx, first))

	second := testArtifact("Amul", "Milk")
	second.TrainingRowCount = 500
	second.ModelState = []byte(`{"level":999}`)
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Get(ctx, "Amul", "Milk")
	require.NoError(t, err)
	assert.Equal(t, 500, got.TrainingRowCount)
	assert.Equal(t, second.ModelState, got.ModelState)
}

func TestLoadAll_SkipsCorruptedEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewArtifactStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, testArtifact("Amul", "Milk")))
	require.NoError(t, store.Save(ctx, testArtifact("Heritage", "Butter")))

	// A truncated write that never reached its rename commit.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-partial.json-123"), []byte(`{"comp`), 0o644))
	// A corrupted committed entry.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken_Milk.json"), []byte(`not json`), 0o644))
	// An entry missing its key metadata.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Empty_Milk.json"), []byte(`{}`), 0o644))
	// Unrelated files are ignored silently.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte(`notes`), 0o644))

	result, err := store.LoadAll(ctx)
	require.NoError(t, err)

	assert.Len(t, result.Artifacts, 2)
	assert.Contains(t, result.Artifacts, domain.SeriesKey{Company: "Amul", Product: "Milk"})
	assert.Contains(t, result.Artifacts, domain.SeriesKey{Company: "Heritage", Product: "Butter"})

	require.Len(t, result.Skipped, 2)
	names := []string{result.Skipped[0].Entry, result.Skipped[1].Entry}
	assert.ElementsMatch(t, []string{"Broken_Milk.json", "Empty_Milk.json"}, names)
	for _, s := range result.Skipped {
		assert.Error(t, s.Err)
	}
}

func TestDelete_NoOpWhenAbsent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	assert.NoError(t, store.Delete(ctx, "Nobody", "Milk"))

	require.NoError(t, store.Save(ctx, testArtifact("Amul", "Milk")))
	require.NoError(t, store.Delete(ctx, "Amul", "Milk"))

	_, err := store.Get(ctx, "Amul", "Milk")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	exists, err := store.Exists(ctx, "Amul", "Milk")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSave_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	assert.ErrorIs(t, store.Save(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(ctx, &domain.TrainedModelArtifact{Product: "Milk"}), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(ctx, &domain.TrainedModelArtifact{Company: "Amul"}), storage.ErrInvalidInput)
}

func TestConcurrentSavesDistinctKeys(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	products := []string{"Milk", "Butter", "Cheese", "Yogurt", "Ghee", "Paneer"}

	var wg sync.WaitGroup
	errs := make([]error, len(products))
	for i, product := range products {
		wg.Add(1)
		go func(i int, product string) {
			defer wg.Done()
			errs[i] = store.Save(ctx, testArtifact("Amul", product))
		}(i, product)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "save %s", products[i])
	}
	result, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, result.Artifacts, len(products))
	assert.Empty(t, result.Skipped)
}

func TestConcurrentSaveAndLoadSameKey(t *testing.T) {
	// A reader racing a writer must always see a complete artifact,
	// either the old or the new one, never a torn read.
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Save(ctx, testArtifact("Amul", "Milk")))

	stop := make(chan struct{})
	var writerErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			a := testArtifact("Amul", "Milk")
			a.TrainingRowCount = 400 + i
			if err := store.Save(ctx, a); err != nil {
				writerErr = err
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		got, err := store.Get(ctx, "Amul", "Milk")
		require.NoError(t, err)
		assert.Equal(t, "Amul", got.Company)
		assert.NotEmpty(t, got.ModelState)
		assert.GreaterOrEqual(t, got.TrainingRowCount, 400)
	}
	close(stop)
	wg.Wait()
	require.NoError(t, writerErr)
}
