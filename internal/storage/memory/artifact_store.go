package memory

import (
	"context"
	"sync"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/storage"
)

// ArtifactStore is an in-memory implementation of storage.ArtifactStore.
type ArtifactStore struct {
	mu   sync.RWMutex
	data map[domain.SeriesKey]*domain.TrainedModelArtifact
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		data: make(map[domain.SeriesKey]*domain.TrainedModelArtifact),
	}
}

var _ storage.ArtifactStore = (*ArtifactStore)(nil)

// Save writes the artifact under its key, replacing any prior one.
func (s *ArtifactStore) Save(_ context.Context, artifact *domain.TrainedModelArtifact) error {
	if artifact == nil || artifact.Company == "" || artifact.Product == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	artifactCopy := *artifact
	artifactCopy.ModelState = append([]byte(nil), artifact.ModelState...)
	s.data[artifact.Key()] = &artifactCopy
	return nil
}

// Get retrieves the artifact for a key. Returns ErrNotFound if absent.
func (s *ArtifactStore) Get(_ context.Context, company, product string) (*domain.TrainedModelArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.data[domain.SeriesKey{Company: company, Product: product}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	artifactCopy := *artifact
	artifactCopy.ModelState = append([]byte(nil), artifact.ModelState...)
	return &artifactCopy, nil
}

// LoadAll returns every stored artifact. In-memory entries cannot corrupt,
// so Skipped is always empty.
func (s *ArtifactStore) LoadAll(_ context.Context) (*storage.LoadResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := &storage.LoadResult{
		Artifacts: make(map[domain.SeriesKey]*domain.TrainedModelArtifact, len(s.data)),
	}
	for key, artifact := range s.data {
		artifactCopy := *artifact
		artifactCopy.ModelState = append([]byte(nil), artifact.ModelState...)
		result.Artifacts[key] = &artifactCopy
	}
	return result, nil
}

// Delete removes an artifact. No-op if absent.
func (s *ArtifactStore) Delete(_ context.Context, company, product string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, domain.SeriesKey{Company: company, Product: product})
	return nil
}

// Exists reports whether an artifact is stored for the key.
func (s *ArtifactStore) Exists(_ context.Context, company, product string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[domain.SeriesKey{Company: company, Product: product}]
	return ok, nil
}
