package storage

import (
	"context"
	"sync"

	"demand-forecast-engine/internal/domain"
)

// ArtifactCache is a write-through in-memory view over an ArtifactStore,
// giving repeated forecast calls O(1) artifact access without re-reading
// storage. It is an explicit object passed to whoever needs it, refreshed
// via Refresh and invalidated per key on Save and Delete.
type ArtifactCache struct {
	store ArtifactStore

	mu      sync.RWMutex
	loaded  bool
	entries map[domain.SeriesKey]*domain.TrainedModelArtifact
}

// NewArtifactCache wraps a store. The cache is empty until Refresh or the
// first Get fault-in.
func NewArtifactCache(store ArtifactStore) *ArtifactCache {
	return &ArtifactCache{
		store:   store,
		entries: make(map[domain.SeriesKey]*domain.TrainedModelArtifact),
	}
}

// Refresh bulk-loads the underlying store, replacing the cached view.
// Skipped entries are returned for reporting; they do not fail the refresh.
func (c *ArtifactCache) Refresh(ctx context.Context) ([]SkippedEntry, error) {
	result, err := c.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries = result.Artifacts
	c.loaded = true
	c.mu.Unlock()
	return result.Skipped, nil
}

// Get returns the cached artifact, falling back to the store on a miss
// before the first bulk load. Returns ErrNotFound if absent.
func (c *ArtifactCache) Get(ctx context.Context, company, product string) (*domain.TrainedModelArtifact, error) {
	key := domain.SeriesKey{Company: company, Product: product}

	c.mu.RLock()
	artifact, ok := c.entries[key]
	loaded := c.loaded
	c.mu.RUnlock()
	if ok {
		return artifact, nil
	}
	if loaded {
		return nil, ErrNotFound
	}

	artifact, err := c.store.Get(ctx, company, product)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = artifact
	c.mu.Unlock()
	return artifact, nil
}

// Save writes through to the store and updates the cached entry only
// after the store accepted the write.
func (c *ArtifactCache) Save(ctx context.Context, artifact *domain.TrainedModelArtifact) error {
	if err := c.store.Save(ctx, artifact); err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[artifact.Key()] = artifact
	c.mu.Unlock()
	return nil
}

// Delete removes from the store and drops the cached entry.
func (c *ArtifactCache) Delete(ctx context.Context, company, product string) error {
	if err := c.store.Delete(ctx, company, product); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.entries, domain.SeriesKey{Company: company, Product: product})
	c.mu.Unlock()
	return nil
}

// Exists checks the cache first, then the store before the first bulk load.
func (c *ArtifactCache) Exists(ctx context.Context, company, product string) (bool, error) {
	c.mu.RLock()
	_, ok := c.entries[domain.SeriesKey{Company: company, Product: product}]
	loaded := c.loaded
	c.mu.RUnlock()
	if ok {
		return true, nil
	}
	if loaded {
		return false, nil
	}
	return c.store.Exists(ctx, company, product)
}

// Keys returns the cached keys in no particular order.
func (c *ArtifactCache) Keys() []domain.SeriesKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]domain.SeriesKey, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}
