// handlers_history.go - Summary archive handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// HistoryHandlerImpl implements the HistoryHandler interface
type HistoryHandlerImpl struct {
	history    HistoryArchive
	allowClear bool
}

// NewHistoryHandler creates a new history handler instance
func NewHistoryHandler(history HistoryArchive, allowClear bool) HistoryHandler {
	return &HistoryHandlerImpl{
		history:    history,
		allowClear: allowClear,
	}
}

// HandleListHistory returns stored summaries, newest first
func (h *HistoryHandlerImpl) HandleListHistory(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0
	}

	entries, err := h.history.List(limit)
	if err != nil {
		return NewInternalError("failed to list history", err)
	}

	return c.JSON(http.StatusOK, entries)
}

// HandleExportHistory returns all summaries as a plain text download
func (h *HistoryHandlerImpl) HandleExportHistory(c echo.Context) error {
	text, err := h.history.Export()
	if err != nil {
		return NewInternalError("failed to export history", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="summaries.txt"`)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// HandleClearHistory removes all stored summaries
func (h *HistoryHandlerImpl) HandleClearHistory(c echo.Context) error {
	if !h.allowClear {
		return NewForbiddenError("history clearing is disabled")
	}

	removed, err := h.history.Clear()
	if err != nil {
		return NewInternalError("failed to clear history", err)
	}

	return c.JSON(http.StatusOK, map[string]int64{"removed": removed})
}

// HandleStats returns archive counters
func (h *HistoryHandlerImpl) HandleStats(c echo.Context) error {
	stats, err := h.history.Stats()
	if err != nil {
		return NewInternalError("failed to compute stats", err)
	}

	return c.JSON(http.StatusOK, stats)
}
