package postgres

import (
	"context"
	"fmt"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/storage"
)

// ArtifactStore implements storage.ArtifactStore using PostgreSQL.
// Save is a per-key upsert inside a single statement, so readers observe
// either the prior artifact or the new one, never a mix.
type ArtifactStore struct {
	pool *Pool
}

// NewArtifactStore creates a new ArtifactStore.
func NewArtifactStore(pool *Pool) *ArtifactStore {
	return &ArtifactStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ArtifactStore = (*ArtifactStore)(nil)

// Save writes the artifact under its key, replacing any prior one.
func (s *ArtifactStore) Save(ctx context.Context, artifact *domain.TrainedModelArtifact) error {
	if artifact == nil || artifact.Company == "" || artifact.Product == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO model_artifacts (
			company, product, trained_at, training_row_count,
			date_range_start, date_range_end,
			mae, rmse, mape, mase,
			seasonality_mode, seasonality_weekly, seasonality_monthly, seasonality_yearly,
			model_state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (company, product) DO UPDATE SET
			trained_at = EXCLUDED.trained_at,
			training_row_count = EXCLUDED.training_row_count,
			date_range_start = EXCLUDED.date_range_start,
			date_range_end = EXCLUDED.date_range_end,
			mae = EXCLUDED.mae,
			rmse = EXCLUDED.rmse,
			mape = EXCLUDED.mape,
			mase = EXCLUDED.mase,
			seasonality_mode = EXCLUDED.seasonality_mode,
			seasonality_weekly = EXCLUDED.seasonality_weekly,
			seasonality_monthly = EXCLUDED.seasonality_monthly,
			seasonality_yearly = EXCLUDED.seasonality_yearly,
			model_state = EXCLUDED.model_state
	`

	_, err := s.pool.Exec(ctx, query,
		artifact.Company,
		artifact.Product,
		artifact.TrainedAt.UTC(),
		artifact.TrainingRowCount,
		artifact.DateRange.Start,
		artifact.DateRange.End,
		artifact.Accuracy.MAE,
		artifact.Accuracy.RMSE,
		artifact.Accuracy.MAPE,
		artifact.Accuracy.MASE,
		string(artifact.Seasonality.Mode),
		artifact.Seasonality.Weekly,
		artifact.Seasonality.Monthly,
		artifact.Seasonality.Yearly,
		artifact.ModelState,
	)
	if err != nil {
		return &storage.IOError{Op: "save", Key: artifact.Key().String(), Err: err}
	}
	return nil
}

const selectColumns = `
	company, product, trained_at, training_row_count,
	date_range_start, date_range_end,
	mae, rmse, mape, mase,
	seasonality_mode, seasonality_weekly, seasonality_monthly, seasonality_yearly,
	model_state
`

// Get retrieves the artifact for a key. Returns ErrNotFound if absent.
func (s *ArtifactStore) Get(ctx context.Context, company, product string) (*domain.TrainedModelArtifact, error) {
	query := `SELECT ` + selectColumns + ` FROM model_artifacts WHERE company = $1 AND product = $2`

	row := s.pool.QueryRow(ctx, query, company, product)
	artifact, err := scanArtifact(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		key := domain.SeriesKey{Company: company, Product: product}.String()
		return nil, &storage.IOError{Op: "load", Key: key, Err: err}
	}
	return artifact, nil
}

// LoadAll retrieves every artifact. Rows that fail to scan are skipped and
// reported individually.
func (s *ArtifactStore) LoadAll(ctx context.Context) (*storage.LoadResult, error) {
	query := `SELECT ` + selectColumns + ` FROM model_artifacts ORDER BY company ASC, product ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, &storage.IOError{Op: "scan", Err: err}
	}
	defer rows.Close()

	result := &storage.LoadResult{
		Artifacts: make(map[domain.SeriesKey]*domain.TrainedModelArtifact),
	}
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			result.Skipped = append(result.Skipped, storage.SkippedEntry{
				Entry: "model_artifacts row",
				Err:   err,
			})
			continue
		}
		result.Artifacts[artifact.Key()] = artifact
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.IOError{Op: "scan", Err: err}
	}
	return result, nil
}

// Delete removes an artifact. No-op if absent.
func (s *ArtifactStore) Delete(ctx context.Context, company, product string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM model_artifacts WHERE company = $1 AND product = $2`, company, product)
	if err != nil {
		key := domain.SeriesKey{Company: company, Product: product}.String()
		return &storage.IOError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Exists reports whether an artifact is stored for the key.
func (s *ArtifactStore) Exists(ctx context.Context, company, product string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM model_artifacts WHERE company = $1 AND product = $2`, company, product,
	).Scan(&one)
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		key := domain.SeriesKey{Company: company, Product: product}.String()
		return false, &storage.IOError{Op: "load", Key: key, Err: err}
	}
	return true, nil
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*domain.TrainedModelArtifact, error) {
	var (
		artifact domain.TrainedModelArtifact
		mode     string
	)
	err := row.Scan(
		&artifact.Company,
		&artifact.Product,
		&artifact.TrainedAt,
		&artifact.TrainingRowCount,
		&artifact.DateRange.Start,
		&artifact.DateRange.End,
		&artifact.Accuracy.MAE,
		&artifact.Accuracy.RMSE,
		&artifact.Accuracy.MAPE,
		&artifact.Accuracy.MASE,
		&mode,
		&artifact.Seasonality.Weekly,
		&artifact.Seasonality.Monthly,
		&artifact.Seasonality.Yearly,
		&artifact.ModelState,
	)
	if err != nil {
		return nil, fmt.Errorf("scan artifact: %w", err)
	}
	artifact.Seasonality.Mode = domain.SeasonalityMode(mode)
	return &artifact, nil
}
