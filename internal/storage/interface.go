package storage

import (
	"errors"

	"github.com/prasenjit/go-depgraph/internal/models"
)

var (
	// ErrNotFound is returned when an analysis does not exist
	ErrNotFound = errors.New("analysis not found")

	// ErrAlreadyExists is returned when creating an analysis with a taken ID
	ErrAlreadyExists = errors.New("analysis already exists")
)

// Storage defines the interface for analysis persistence
type Storage interface {
	CreateAnalysis(a *models.Analysis) error
	GetAnalysis(id string) (*models.Analysis, error)
	GetAllAnalyses() ([]*models.Analysis, error)
	UpdateAnalysis(a *models.Analysis) error
	DeleteAnalysis(id string) error

	// Utility
	Close() error
}
