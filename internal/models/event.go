package models

import (
	"time"
)

// Event types
const (
	EventAnalysisCreated = "analysis.created"
	EventAnalysisFailed  = "analysis.failed"
	EventAnalysisDeleted = "analysis.deleted"
	EventAnalysisUpdated = "analysis.updated"
)

// Event is a notification about an analysis, kept in a bounded history and
// streamed to subscribers
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	AnalysisID string         `json:"analysisId,omitempty"`
	Name       string         `json:"name,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data,omitempty"`
}

// EventFilter represents filters for querying events
type EventFilter struct {
	Type       string    `json:"type,omitempty"`
	AnalysisID string    `json:"analysisId,omitempty"`
	StartTime  time.Time `json:"startTime,omitempty"`
	Limit      int       `json:"limit,omitempty"`
}
