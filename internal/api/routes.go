// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/zainfaisal220/Sumlyzer/internal/pdf"
	"github.com/zainfaisal220/Sumlyzer/internal/preview"
	"github.com/zainfaisal220/Sumlyzer/internal/rag"
	"github.com/zainfaisal220/Sumlyzer/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store    storage.Store
	Jobs     JobManager
	Preview  *preview.Chain
	Limits   pdf.Limits
	Chunks   *rag.ChunkIndex
	Vectors  rag.VectorStore
	Prompts  *rag.PromptRegistry
	History  HistoryArchive
	Log      *slog.Logger
	Version  string

	// RecentLimit caps the recent-documents listing.
	RecentLimit int
	// PromptsFile is where uploaded prompt profiles are persisted.
	PromptsFile string
	// AllowDocumentDeletion and AllowHistoryClear gate the destructive
	// endpoints.
	AllowDocumentDeletion bool
	AllowHistoryClear     bool
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Documents DocumentHandler
	Summaries SummaryHandler
	Prompts   PromptHandler
	History   HistoryHandler
	JobSocket *JobSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version),
		Documents: NewDocumentHandler(deps),
		Summaries: NewSummaryHandler(deps.Jobs, deps.Log),
		Prompts:   NewPromptHandler(deps.Prompts, deps.PromptsFile, deps.Log),
		History:   NewHistoryHandler(deps.History, deps.AllowHistoryClear),
		JobSocket: NewJobSocketHandler(deps.Jobs, deps.Log),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Document routes
	docGroup := e.Group("/api/documents")
	docGroup.POST("/upload", handlers.Documents.HandleUpload)
	docGroup.POST("/upload/binary", handlers.Documents.HandleUploadBinary)
	docGroup.GET("/recent", handlers.Documents.HandleRecentDocuments)
	docGroup.GET("/:id", handlers.Documents.HandleGetDocument)
	docGroup.GET("/:id/preview", handlers.Documents.HandleGetPreview)
	docGroup.GET("/:id/chunks", handlers.Documents.HandleGetChunks)
	docGroup.GET("/:id/chunks/msgpack", handlers.Documents.HandleGetChunksMsgpack)
	docGroup.DELETE("/:id", handlers.Documents.HandleDeleteDocument)

	// Summarize job routes
	sumGroup := e.Group("/api/summaries")
	sumGroup.POST("", handlers.Summaries.HandleStartSummary)
	sumGroup.GET("/jobs/:jobId", handlers.Summaries.HandleJobStatus)
	sumGroup.POST("/jobs/:jobId/keepalive", handlers.Summaries.HandleJobKeepAlive)
	sumGroup.GET("/jobs/:jobId/progress", handlers.Summaries.HandleJobProgressStream)

	// Prompt profile routes
	promptGroup := e.Group("/api/prompts")
	promptGroup.GET("", handlers.Prompts.HandleListPrompts)
	promptGroup.POST("/upload", handlers.Prompts.HandleUploadPrompt)

	// History routes
	historyGroup := e.Group("/api/history")
	historyGroup.GET("", handlers.History.HandleListHistory)
	historyGroup.GET("/export", handlers.History.HandleExportHistory)
	historyGroup.DELETE("", handlers.History.HandleClearHistory)

	e.GET("/api/stats", handlers.History.HandleStats)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/ws/jobs/:jobId", handlers.JobSocket.HandleJobSocket)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
}
