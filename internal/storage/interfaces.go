package storage

import (
	"context"
	"time"

	"demand-forecast-engine/internal/domain"
)

// ArtifactStore is the model registry: a durable key-value store mapping
// (company, product) to its trained artifact. Writes for one key are
// serialized against reads and writes for that key; a reader never
// observes a partially written artifact.
type ArtifactStore interface {
	// Save writes the artifact under its key, replacing any prior one.
	// The write is atomic from the caller's perspective; on failure the
	// prior artifact remains intact and the error is surfaced.
	Save(ctx context.Context, artifact *domain.TrainedModelArtifact) error

	// Get retrieves the artifact for a key. Returns ErrNotFound if absent.
	Get(ctx context.Context, company, product string) (*domain.TrainedModelArtifact, error)

	// LoadAll scans the store and returns every readable artifact.
	// Corrupted or unreadable entries are collected in Skipped and do not
	// fail the load.
	LoadAll(ctx context.Context) (*LoadResult, error)

	// Delete removes an artifact. No-op, not an error, if absent.
	Delete(ctx context.Context, company, product string) error

	// Exists reports whether an artifact is stored for the key.
	Exists(ctx context.Context, company, product string) (bool, error)
}

// LoadResult is the outcome of a bulk artifact load: whatever subset
// loaded, plus the entries that did not.
type LoadResult struct {
	Artifacts map[domain.SeriesKey]*domain.TrainedModelArtifact
	Skipped   []SkippedEntry
}

// SkippedEntry reports one registry entry that failed to load.
type SkippedEntry struct {
	Entry string // store-specific entry name, e.g. filename or row key
	Err   error
}

// ObservationStore holds the validated sales history feeding training,
// staleness checks and comparison growth windows.
type ObservationStore interface {
	// InsertBulk adds observations. Fails the entire batch on a duplicate
	// (date, company, product) key.
	InsertBulk(ctx context.Context, observations []*domain.SalesObservation) error

	// GetByKey retrieves all observations for a series, ordered by date ASC.
	GetByKey(ctx context.Context, company, product string) ([]*domain.SalesObservation, error)

	// Keys enumerates every distinct series key, ordered by company then
	// product.
	Keys(ctx context.Context) ([]domain.SeriesKey, error)

	// LatestDate returns the most recent observation date for a series.
	// Returns ErrNotFound when the series has no observations.
	LatestDate(ctx context.Context, company, product string) (time.Time, error)
}
