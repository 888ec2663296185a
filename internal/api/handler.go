package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/go-depgraph/internal/analyzer"
	"github.com/prasenjit/go-depgraph/internal/events"
	"github.com/prasenjit/go-depgraph/internal/export"
	"github.com/prasenjit/go-depgraph/internal/graph"
	"github.com/prasenjit/go-depgraph/internal/models"
	"github.com/prasenjit/go-depgraph/internal/parser"
	"github.com/prasenjit/go-depgraph/internal/stats"
	"github.com/prasenjit/go-depgraph/internal/storage"
	"github.com/prasenjit/go-depgraph/internal/verify"
)

// Handler handles API requests
type Handler struct {
	store    storage.Storage
	hub      *events.Hub
	defaults analyzer.Options
	logger   *slog.Logger

	// serializes read-modify-write of stored analyses
	mu sync.Mutex
}

// NewHandler creates a new API handler. defaults apply to analyses that do
// not set their own threshold or depth.
func NewHandler(store storage.Storage, hub *events.Hub, defaults analyzer.Options, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		store:    store,
		hub:      hub,
		defaults: defaults,
		logger:   logger,
	}
}

// ListAnalyses returns summaries of all analyses, newest first
func (h *Handler) ListAnalyses(c *gin.Context) {
	analyses, err := h.store.GetAllAnalyses()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := make([]models.AnalysisSummary, len(analyses))
	for i, a := range analyses {
		result[i] = a.Summary()
	}

	c.JSON(http.StatusOK, result)
}

// CreateAnalysis analyzes an OpenAPI document and stores the result
func (h *Handler) CreateAnalysis(c *gin.Context) {
	var input models.AnalysisInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := h.defaults
	if input.Threshold != nil {
		opts.EdgeConfidenceThreshold = *input.Threshold
	}
	if input.MaxDepth != nil {
		opts.MaxExtractionDepth = *input.MaxDepth
	}

	a, err := analyzer.New(opts, h.logger)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := parser.Load([]byte(input.Content), parser.LoadOptions{Validate: input.Validate})
	if err != nil {
		h.failed(input.Name, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OpenAPI spec: " + err.Error()})
		return
	}

	name := input.Name
	if name == "" {
		name = doc.Title
	}

	start := time.Now()
	result, err := a.Analyze(doc.Raw)
	if err != nil {
		h.failed(name, err)
		var malformed *parser.MalformedSpecError
		if errors.As(err, &malformed) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    err.Error(),
				"location": malformed.Location,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	graphDoc := export.Document(result.Operations, result.Graph, result.Observations)
	export.AttachHints(graphDoc, result.Hints)

	analysis := &models.Analysis{
		Name:       name,
		Title:      doc.Title,
		Version:    doc.Version,
		Threshold:  opts.EdgeConfidenceThreshold,
		MaxDepth:   opts.MaxExtractionDepth,
		Graph:      graphDoc,
		Stats:      result.Stats,
		Warnings:   result.Warnings,
		CreatedAt:  time.Now(),
		DurationNs: time.Since(start).Nanoseconds(),
	}

	if err := h.store.CreateAnalysis(analysis); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("analysis created",
		"id", analysis.ID,
		"operations", result.Graph.NodeCount(),
		"edges", result.Graph.EdgeCount(),
		"truncated", result.TruncatedFields())

	h.hub.Publish(&models.Event{
		Type:       models.EventAnalysisCreated,
		AnalysisID: analysis.ID,
		Name:       analysis.Name,
		Data: map[string]any{
			"operations":      result.Graph.NodeCount(),
			"edges":           result.Graph.EdgeCount(),
			"cycles":          len(result.Stats.Cycles),
			"truncatedFields": result.TruncatedFields(),
		},
	})

	c.JSON(http.StatusCreated, analysis.Summary())
}

// failed publishes a failure event for a rejected document
func (h *Handler) failed(name string, err error) {
	h.logger.Warn("analysis failed", "name", name, "error", err)
	h.hub.Publish(&models.Event{
		Type: models.EventAnalysisFailed,
		Name: name,
		Data: map[string]any{"error": err.Error()},
	})
}

// GetAnalysis returns a single analysis
func (h *Handler) GetAnalysis(c *gin.Context) {
	analysis, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// DeleteAnalysis deletes an analysis
func (h *Handler) DeleteAnalysis(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.DeleteAnalysis(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.hub.Publish(&models.Event{
		Type:       models.EventAnalysisDeleted,
		AnalysisID: id,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Analysis deleted"})
}

// GetGraph returns the node/edge document of an analysis
func (h *Handler) GetGraph(c *gin.Context) {
	analysis, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, analysis.Graph)
}

// GetStats returns the graph statistics of an analysis
func (h *Handler) GetStats(c *gin.Context) {
	analysis, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, analysis.Stats)
}

// ExportAnalysis renders an analysis as json, dot or a text summary
func (h *Handler) ExportAnalysis(c *gin.Context) {
	analysis, ok := h.lookup(c)
	if !ok {
		return
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)

	switch format := c.DefaultQuery("format", "json"); format {
	case "json":
		contentType = "application/json"
		err = export.WriteJSON(&buf, analysis.Graph)
	case "dot":
		contentType = "text/vnd.graphviz"
		err = export.WriteDOT(&buf, analysis.Graph)
	case "summary":
		contentType = "text/plain; charset=utf-8"
		err = export.WriteSummary(&buf, analysis.Stats, analysis.Warnings)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown export format: " + format})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// GetExecutionSequence returns the prerequisites of an operation in call
// order, ending with the operation itself
func (h *Handler) GetExecutionSequence(c *gin.Context) {
	analysis, ok := h.lookup(c)
	if !ok {
		return
	}

	g, err := graph.FromDocument(analysis.Graph)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	opID := c.Param("opId")
	sequence, err := stats.ExecutionSequence(g, opID)
	switch {
	case errors.Is(err, stats.ErrUnknownOperation):
		c.JSON(http.StatusNotFound, gin.H{"error": "Operation not found"})
		return
	case errors.Is(err, stats.ErrCyclicDependencies):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"operationId": opID,
		"sequence":    sequence,
	})
}

// RecordObservation checks a recorded response body of an operation against
// the producer fields of its outgoing edges. Matches whose producer field is
// present are marked observed and their edges verified.
func (h *Handler) RecordObservation(c *gin.Context) {
	var input models.ObservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	analysis, ok := h.lookup(c)
	if !ok {
		return
	}

	g, err := graph.FromDocument(analysis.Graph)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !g.HasNode(input.OperationID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Operation not found"})
		return
	}

	observations, err := verify.Observe(g, input.OperationID, input.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated := *analysis
	updated.Graph = analysis.Graph.Clone()
	confirmed := export.ApplyObservations(updated.Graph, observations)

	if confirmed > 0 {
		if err := h.store.UpdateAnalysis(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		h.hub.Publish(&models.Event{
			Type:       models.EventAnalysisUpdated,
			AnalysisID: updated.ID,
			Name:       updated.Name,
			Data: map[string]any{
				"operationId": input.OperationID,
				"confirmed":   confirmed,
			},
		})
	}

	if observations == nil {
		observations = []models.Observation{}
	}
	c.JSON(http.StatusOK, gin.H{
		"observations": observations,
		"confirmed":    confirmed,
	})
}

// ListEvents returns analysis events, newest first
func (h *Handler) ListEvents(c *gin.Context) {
	filter := &models.EventFilter{
		Limit: 100, // Default limit
	}

	// Parse query params
	if typ := c.Query("type"); typ != "" {
		filter.Type = typ
	}
	if id := c.Query("analysisId"); id != "" {
		filter.AnalysisID = id
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since: " + err.Error()})
			return
		}
		filter.StartTime = t
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = n
	}

	c.JSON(http.StatusOK, h.hub.Events(filter))
}

// ClearEvents clears the event history
func (h *Handler) ClearEvents(c *gin.Context) {
	h.hub.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "Events cleared"})
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"events":    h.hub.Stats(),
	})
}

// lookup loads the analysis named by the id parameter, writing a 404 when
// it does not exist
func (h *Handler) lookup(c *gin.Context) (*models.Analysis, bool) {
	analysis, err := h.store.GetAnalysis(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return analysis, true
}
