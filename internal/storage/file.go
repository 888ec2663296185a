package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prasenjit/go-depgraph/internal/models"
)

// FileStorage implements Storage interface with one JSON file per analysis
type FileStorage struct {
	mu       sync.RWMutex
	basePath string
	memory   *MemoryStorage
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(basePath string) (*FileStorage, error) {
	dir := filepath.Join(basePath, "analyses")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	fs := &FileStorage{
		basePath: basePath,
		memory:   NewMemoryStorage(),
	}

	// Load existing data
	if err := fs.loadAll(); err != nil {
		return nil, err
	}

	return fs, nil
}

// loadAll loads all analyses from disk. Unreadable files are skipped.
func (f *FileStorage) loadAll() error {
	entries, err := os.ReadDir(f.dir())
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(f.dir(), entry.Name()))
		if err != nil {
			continue
		}

		var a models.Analysis
		if err := json.Unmarshal(data, &a); err != nil || a.ID == "" {
			continue
		}

		f.memory.analyses[a.ID] = &a
	}

	return nil
}

func (f *FileStorage) dir() string {
	return filepath.Join(f.basePath, "analyses")
}

// saveAnalysis saves an analysis to disk
func (f *FileStorage) saveAnalysis(a *models.Analysis) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(f.dir(), a.ID+".json")
	return os.WriteFile(path, data, 0644)
}

// deleteAnalysisFile deletes an analysis file from disk
func (f *FileStorage) deleteAnalysisFile(id string) error {
	path := filepath.Join(f.dir(), id+".json")
	return os.Remove(path)
}

// CreateAnalysis stores a new analysis
func (f *FileStorage) CreateAnalysis(a *models.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateAnalysis(a); err != nil {
		return err
	}

	return f.saveAnalysis(a)
}

// GetAnalysis retrieves an analysis by ID
func (f *FileStorage) GetAnalysis(id string) (*models.Analysis, error) {
	return f.memory.GetAnalysis(id)
}

// GetAllAnalyses retrieves all analyses
func (f *FileStorage) GetAllAnalyses() ([]*models.Analysis, error) {
	return f.memory.GetAllAnalyses()
}

// UpdateAnalysis replaces a stored analysis
func (f *FileStorage) UpdateAnalysis(a *models.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.UpdateAnalysis(a); err != nil {
		return err
	}

	return f.saveAnalysis(a)
}

// DeleteAnalysis deletes an analysis
func (f *FileStorage) DeleteAnalysis(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.DeleteAnalysis(id); err != nil {
		return err
	}

	if err := f.deleteAnalysisFile(id); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close closes the storage
func (f *FileStorage) Close() error {
	return nil
}
