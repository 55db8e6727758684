package clickhouse

import (
	"context"
	"fmt"
	"time"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/storage"
)

// ObservationStore implements storage.ObservationStore using ClickHouse.
type ObservationStore struct {
	conn *Conn
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(conn *Conn) *ObservationStore {
	return &ObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

// InsertBulk adds observations. Fails entire batch on a duplicate
// (date, company, product) key.
func (s *ObservationStore) InsertBulk(ctx context.Context, observations []*domain.SalesObservation) error {
	if len(observations) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		date    string
		company string
		product string
	}
	seen := make(map[key]struct{}, len(observations))
	for _, o := range observations {
		if o == nil || o.Company == "" || o.Product == "" {
			return storage.ErrInvalidInput
		}
		k := key{o.Date.Format("2006-01-02"), o.Company, o.Product}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing rows. ClickHouse MergeTree
	// does not enforce uniqueness at insert time.
	for _, o := range observations {
		exists, err := s.exists(ctx, o)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO sales_observations (
			date, company, product, quantity_sold, unit_price
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range observations {
		err = batch.Append(
			o.Date, o.Company, o.Product, o.QuantitySold, o.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByKey retrieves all observations for a series, ordered by date ASC.
func (s *ObservationStore) GetByKey(ctx context.Context, company, product string) ([]*domain.SalesObservation, error) {
	query := `
		SELECT date, company, product, quantity_sold, unit_price
		FROM sales_observations
		WHERE company = ? AND product = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, company, product)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var result []*domain.SalesObservation
	for rows.Next() {
		var o domain.SalesObservation
		if err := rows.Scan(&o.Date, &o.Company, &o.Product, &o.QuantitySold, &o.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		result = append(result, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return result, nil
}

// Keys enumerates every distinct series key.
func (s *ObservationStore) Keys(ctx context.Context) ([]domain.SeriesKey, error) {
	query := `
		SELECT DISTINCT company, product
		FROM sales_observations
		ORDER BY company ASC, product ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.SeriesKey
	for rows.Next() {
		var k domain.SeriesKey
		if err := rows.Scan(&k.Company, &k.Product); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

// LatestDate returns the most recent observation date for a series.
func (s *ObservationStore) LatestDate(ctx context.Context, company, product string) (time.Time, error) {
	query := `
		SELECT max(date), count()
		FROM sales_observations
		WHERE company = ? AND product = ?
	`

	var (
		latest time.Time
		count  uint64
	)
	if err := s.conn.QueryRow(ctx, query, company, product).Scan(&latest, &count); err != nil {
		return time.Time{}, fmt.Errorf("query latest date: %w", err)
	}
	if count == 0 {
		return time.Time{}, storage.ErrNotFound
	}
	return latest, nil
}

func (s *ObservationStore) exists(ctx context.Context, o *domain.SalesObservation) (bool, error) {
	query := `
		SELECT count()
		FROM sales_observations
		WHERE date = ? AND company = ? AND product = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, o.Date, o.Company, o.Product).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
