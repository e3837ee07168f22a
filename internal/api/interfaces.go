// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
)

// DocumentHandler handles document upload and inspection operations
type DocumentHandler interface {
	HandleUpload(c echo.Context) error
	HandleUploadBinary(c echo.Context) error
	HandleRecentDocuments(c echo.Context) error
	HandleGetDocument(c echo.Context) error
	HandleGetPreview(c echo.Context) error
	HandleGetChunks(c echo.Context) error
	HandleGetChunksMsgpack(c echo.Context) error
	HandleDeleteDocument(c echo.Context) error
}

// SummaryHandler handles summarize job operations
type SummaryHandler interface {
	HandleStartSummary(c echo.Context) error
	HandleJobStatus(c echo.Context) error
	HandleJobKeepAlive(c echo.Context) error
	HandleJobProgressStream(c echo.Context) error
}

// PromptHandler handles prompt profile operations
type PromptHandler interface {
	HandleListPrompts(c echo.Context) error
	HandleUploadPrompt(c echo.Context) error
}

// HistoryHandler handles summary archive operations
type HistoryHandler interface {
	HandleListHistory(c echo.Context) error
	HandleExportHistory(c echo.Context) error
	HandleClearHistory(c echo.Context) error
	HandleStats(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// JobManager defines the interface for summarize job management
// This allows mocking in tests
type JobManager interface {
	StartJob(documentID, promptID string) (*models.SummaryJob, error)
	GetJob(id string) (*models.SummaryJob, bool)
	TouchJob(id string) bool
}

// HistoryArchive defines the interface for the summary archive
// This allows mocking in tests
type HistoryArchive interface {
	List(limit int) ([]*models.HistoryEntry, error)
	Export() (string, error)
	Clear() (int64, error)
	Stats() (*models.HistoryStats, error)
}
