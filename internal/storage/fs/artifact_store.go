// Package fs implements the model registry on the local filesystem: one
// JSON entry per (company, product) key, written atomically via a temp
// file and rename so that a concurrent load never observes a partial
// artifact, even across a process crash mid-write.
package fs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"demand-forecast-engine/internal/domain"
	"demand-forecast-engine/internal/storage"
)

const entrySuffix = ".json"

// artifactRecord is the persisted entry layout. The metadata fields are
// stable and round-trip exactly.
type artifactRecord struct {
	Company          string                   `json:"company"`
	Product          string                   `json:"product"`
	TrainedAt        time.Time                `json:"trained_at"`
	TrainingRowCount int                      `json:"training_row_count"`
	DateRangeStart   string                   `json:"date_range_start"`
	DateRangeEnd     string                   `json:"date_range_end"`
	MAE              float64                  `json:"mae"`
	RMSE             float64                  `json:"rmse"`
	MAPE             *float64                 `json:"mape"`
	MASE             *float64                 `json:"mase,omitempty"`
	Seasonality      domain.SeasonalityConfig `json:"seasonality"`
	ModelState       string                   `json:"model_state"` // base64
}

const dateLayout = "2006-01-02"

// ArtifactStore is a filesystem-backed storage.ArtifactStore.
type ArtifactStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-key write serialization
}

// NewArtifactStore creates the registry directory if needed.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &storage.IOError{Op: "init", Err: err}
	}
	return &ArtifactStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

var _ storage.ArtifactStore = (*ArtifactStore)(nil)

// keyLock returns the mutex serializing writes for one key. Writes for
// different keys proceed in parallel.
func (s *ArtifactStore) keyLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// entryName maps a key to its registry entry filename.
func entryName(company, product string) string {
	key := domain.SeriesKey{Company: company, Product: product}.String()
	return strings.ReplaceAll(key, " ", "_") + entrySuffix
}

// Save writes the artifact under its key, replacing any prior one.
func (s *ArtifactStore) Save(_ context.Context, artifact *domain.TrainedModelArtifact) error {
	if artifact == nil || artifact.Company == "" || artifact.Product == "" {
		return storage.ErrInvalidInput
	}
	key := artifact.Key().String()

	record := artifactRecord{
		Company:          artifact.Company,
		Product:          artifact.Product,
		TrainedAt:        artifact.TrainedAt.UTC(),
		TrainingRowCount: artifact.TrainingRowCount,
		DateRangeStart:   artifact.DateRange.Start.Format(dateLayout),
		DateRangeEnd:     artifact.DateRange.End.Format(dateLayout),
		MAE:              artifact.Accuracy.MAE,
		RMSE:             artifact.Accuracy.RMSE,
		MAPE:             artifact.Accuracy.MAPE,
		MASE:             artifact.Accuracy.MASE,
		Seasonality:      artifact.Seasonality,
		ModelState:       base64.StdEncoding.EncodeToString(artifact.ModelState),
	}
	data, err := json.MarshalIndent(&record, "", "  ")
	if err != nil {
		return &storage.IOError{Op: "save", Key: key, Err: err}
	}

	name := entryName(artifact.Company, artifact.Product)
	lock := s.keyLock(name)
	lock.Lock()
	defer lock.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return &storage.IOError{Op: "save", Key: key, Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &storage.IOError{Op: "save", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &storage.IOError{Op: "save", Key: key, Err: err}
	}
	// Rename is the commit point. Until it happens the prior artifact, if
	// any, stays intact.
	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpPath)
		return &storage.IOError{Op: "save", Key: key, Err: err}
	}
	return nil
}

// Get retrieves the artifact for a key. Returns ErrNotFound if absent.
func (s *ArtifactStore) Get(_ context.Context, company, product string) (*domain.TrainedModelArtifact, error) {
	name := entryName(company, product)
	artifact, err := s.readEntry(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		key := domain.SeriesKey{Company: company, Product: product}.String()
		return nil, &storage.IOError{Op: "load", Key: key, Err: err}
	}
	return artifact, nil
}

// LoadAll scans the registry directory. Entries that fail to read or
// decode are skipped and reported; the rest load normally.
func (s *ArtifactStore) LoadAll(_ context.Context) (*storage.LoadResult, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &storage.IOError{Op: "scan", Err: err}
	}

	result := &storage.LoadResult{
		Artifacts: make(map[domain.SeriesKey]*domain.TrainedModelArtifact),
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, entrySuffix) || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		artifact, err := s.readEntry(name)
		if err != nil {
			result.Skipped = append(result.Skipped, storage.SkippedEntry{Entry: name, Err: err})
			continue
		}
		result.Artifacts[artifact.Key()] = artifact
	}
	return result, nil
}

// Delete removes an artifact. No-op if absent.
func (s *ArtifactStore) Delete(_ context.Context, company, product string) error {
	name := entryName(company, product)
	lock := s.keyLock(name)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		key := domain.SeriesKey{Company: company, Product: product}.String()
		return &storage.IOError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Exists reports whether an artifact entry is present for the key.
func (s *ArtifactStore) Exists(_ context.Context, company, product string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, entryName(company, product)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		key := domain.SeriesKey{Company: company, Product: product}.String()
		return false, &storage.IOError{Op: "load", Key: key, Err: err}
	}
	return true, nil
}

func (s *ArtifactStore) readEntry(name string) (*domain.TrainedModelArtifact, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}

	var record artifactRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	if record.Company == "" || record.Product == "" {
		return nil, fmt.Errorf("entry missing company/product metadata")
	}

	start, err := time.Parse(dateLayout, record.DateRangeStart)
	if err != nil {
		return nil, fmt.Errorf("parse date_range_start: %w", err)
	}
	end, err := time.Parse(dateLayout, record.DateRangeEnd)
	if err != nil {
		return nil, fmt.Errorf("parse date_range_end: %w", err)
	}
	state, err := base64.StdEncoding.DecodeString(record.ModelState)
	if err != nil {
		return nil, fmt.Errorf("decode model state: %w", err)
	}

	return &domain.TrainedModelArtifact{
		Company:          record.Company,
		Product:          record.Product,
		TrainedAt:        record.TrainedAt,
		TrainingRowCount: record.TrainingRowCount,
		DateRange:        domain.DateRange{Start: start, End: end},
		Accuracy: domain.AccuracyMetrics{
			MAE:  record.MAE,
			RMSE: record.RMSE,
			MAPE: record.MAPE,
			MASE: record.MASE,
		},
		Seasonality: record.Seasonality,
		ModelState:  state,
	}, nil
}
