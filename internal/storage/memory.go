package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/prasenjit/go-depgraph/internal/models"
)

// MemoryStorage implements Storage interface with in-memory storage
type MemoryStorage struct {
	mu       sync.RWMutex
	analyses map[string]*models.Analysis
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		analyses: make(map[string]*models.Analysis),
	}
}

// CreateAnalysis stores a new analysis, assigning an ID when it has none
func (m *MemoryStorage) CreateAnalysis(a *models.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if _, exists := m.analyses[a.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, a.ID)
	}

	m.analyses[a.ID] = a
	return nil
}

// GetAnalysis retrieves an analysis by ID
func (m *MemoryStorage) GetAnalysis(id string) (*models.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, exists := m.analyses[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return a, nil
}

// GetAllAnalyses retrieves all analyses, newest first
func (m *MemoryStorage) GetAllAnalyses() ([]*models.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	analyses := make([]*models.Analysis, 0, len(m.analyses))
	for _, a := range m.analyses {
		analyses = append(analyses, a)
	}

	sort.Slice(analyses, func(i, j int) bool {
		if !analyses[i].CreatedAt.Equal(analyses[j].CreatedAt) {
			return analyses[i].CreatedAt.After(analyses[j].CreatedAt)
		}
		return analyses[i].ID < analyses[j].ID
	})

	return analyses, nil
}

// UpdateAnalysis replaces a stored analysis
func (m *MemoryStorage) UpdateAnalysis(a *models.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.analyses[a.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, a.ID)
	}

	m.analyses[a.ID] = a
	return nil
}

// DeleteAnalysis deletes an analysis
func (m *MemoryStorage) DeleteAnalysis(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.analyses[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(m.analyses, id)
	return nil
}

// Close closes the storage (no-op for memory storage)
func (m *MemoryStorage) Close() error {
	return nil
}
