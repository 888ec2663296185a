package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/go-depgraph/internal/analyzer"
	"github.com/prasenjit/go-depgraph/internal/events"
	"github.com/prasenjit/go-depgraph/internal/storage"
)

// Router handles HTTP routing
type Router struct {
	engine  *gin.Engine
	hub     *events.Hub
	logger  *slog.Logger
	handler *Handler
}

// NewRouter creates a new router
func NewRouter(store storage.Storage, hub *events.Hub, defaults analyzer.Options, logger *slog.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &Router{
		engine: gin.New(),
		hub:    hub,
		logger: logger,
	}

	// Create handler
	r.handler = NewHandler(store, hub, defaults, logger)

	// Setup middleware
	r.engine.Use(gin.Recovery())
	r.engine.Use(corsMiddleware())
	r.engine.Use(gin.Logger())

	// Setup routes
	r.setupRoutes()

	return r
}

// setupRoutes configures all routes
func (r *Router) setupRoutes() {
	api := r.engine.Group("/_api")
	{
		// Analyses
		api.GET("/analyses", r.handler.ListAnalyses)
		api.POST("/analyses", r.handler.CreateAnalysis)
		api.GET("/analyses/:id", r.handler.GetAnalysis)
		api.DELETE("/analyses/:id", r.handler.DeleteAnalysis)
		api.GET("/analyses/:id/graph", r.handler.GetGraph)
		api.GET("/analyses/:id/stats", r.handler.GetStats)
		api.GET("/analyses/:id/export", r.handler.ExportAnalysis)
		api.GET("/analyses/:id/operations/:opId/sequence", r.handler.GetExecutionSequence)
		api.POST("/analyses/:id/observations", r.handler.RecordObservation)

		// Events
		api.GET("/events", r.handler.ListEvents)
		api.DELETE("/events", r.handler.ClearEvents)

		// Health
		api.GET("/health", r.handler.HealthCheck)
	}

	// WebSocket for live events
	wsHandler := events.NewWebSocketHandler(r.hub, r.logger)
	r.engine.GET("/_api/events/stream", gin.WrapH(wsHandler))
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
