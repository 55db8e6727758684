package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/storage"
)

// ObservationStore is an in-memory implementation of
// storage.ObservationStore.
type ObservationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SalesObservation // keyed by (date, company, product)
}

// NewObservationStore creates a new in-memory observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{
		data: make(map[string]*domain.SalesObservation),
	}
}

var _ storage.ObservationStore = (*ObservationStore)(nil)

func observationKey(o *domain.SalesObservation) string {
	return fmt.Sprintf("%s|%s|%s", o.Date.Format("2006-01-02"), o.Company, o.Product)
}

// InsertBulk adds observations. Fails entire batch on duplicate.
func (s *ObservationStore) InsertBulk(_ context.Context, observations []*domain.SalesObservation) error {
	if len(observations) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: reject existing and intra-batch duplicates.
	batchKeys := make(map[string]struct{}, len(observations))
	for _, o := range observations {
		if o == nil || o.Company == "" || o.Product == "" {
			return storage.ErrInvalidInput
		}
		key := observationKey(o)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, o := range observations {
		obsCopy := *o
		s.data[observationKey(o)] = &obsCopy
	}
	return nil
}

// GetByKey retrieves all observations for a series, ordered by date ASC.
func (s *ObservationStore) GetByKey(_ context.Context, company, product string) ([]*domain.SalesObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SalesObservation
	for _, o := range s.data {
		if o.Company == company && o.Product == product {
			obsCopy := *o
			result = append(result, &obsCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// Keys enumerates every distinct series key, ordered by company then
// product.
func (s *ObservationStore) Keys(_ context.Context) ([]domain.SeriesKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[domain.SeriesKey]struct{})
	for _, o := range s.data {
		seen[domain.SeriesKey{Company: o.Company, Product: o.Product}] = struct{}{}
	}

	keys := make([]domain.SeriesKey, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys, nil
}

// LatestDate returns the most recent observation date for a series.
func (s *ObservationStore) LatestDate(_ context.Context, company, product string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	found := false
	for _, o := range s.data {
		if o.Company == company && o.Product == product && o.Date.After(latest) {
			latest = o.Date
			found = true
		}
	}
	if !found {
		return time.Time{}, storage.ErrNotFound
	}
	return latest, nil
}
