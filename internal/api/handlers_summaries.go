// handlers_summaries.go - Summarize job handlers
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
	"github.com/zainfaisal220/Sumlyzer/internal/summarize"
)

// SummaryHandlerImpl implements the SummaryHandler interface
type SummaryHandlerImpl struct {
	jobs JobManager
	log  *slog.Logger
}

// NewSummaryHandler creates a new summary handler instance
func NewSummaryHandler(jobs JobManager, log *slog.Logger) SummaryHandler {
	return &SummaryHandlerImpl{
		jobs: jobs,
		log:  log,
	}
}

// HandleStartSummary starts a summarize job for a stored document
func (h *SummaryHandlerImpl) HandleStartSummary(c echo.Context) error {
	var req startSummaryRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	job, err := h.jobs.StartJob(req.DocumentID, req.PromptID)
	if err != nil {
		if errors.Is(err, summarize.ErrUnknownPrompt) {
			return NewBadRequestError("unknown prompt profile", err)
		}
		return NewNotFoundError("document", req.DocumentID)
	}

	h.log.Info("summarize job started",
		"job", job.ID, "document", job.DocumentID, "prompt", job.PromptID)

	return c.JSON(http.StatusAccepted, job)
}

// HandleJobStatus returns the current state of a summarize job
func (h *SummaryHandlerImpl) HandleJobStatus(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}

	job, ok := h.jobs.GetJob(id)
	if !ok {
		return NewNotFoundError("job", id)
	}

	// Touch the job to prevent cleanup while being viewed
	h.jobs.TouchJob(id)

	return c.JSON(http.StatusOK, job)
}

// HandleJobKeepAlive extends job lifetime for active viewing
func (h *SummaryHandlerImpl) HandleJobKeepAlive(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}

	if ok := h.jobs.TouchJob(id); !ok {
		return NewNotFoundError("job", id)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleJobProgressStream streams job progress via SSE
func (h *SummaryHandlerImpl) HandleJobProgressStream(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	job, ok := h.jobs.GetJob(id)
	if !ok {
		h.sendSSEError(c, "job not found")
		return nil
	}

	// Send initial status
	h.sendSSEData(c, job)
	if isTerminal(job.Status) {
		return nil
	}

	// Stream updates until complete or error
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()

	for {
		select {
		case <-ticker.C:
			job, ok := h.jobs.GetJob(id)
			if !ok {
				h.sendSSEError(c, "job not found")
				return nil
			}

			h.sendSSEData(c, job)

			if isTerminal(job.Status) {
				return nil
			}

		case <-timeout.C:
			h.sendSSEError(c, "stream timeout")
			return nil

		case <-c.Request().Context().Done():
			return nil
		}
	}
}

// Request types

type startSummaryRequest struct {
	DocumentID string `json:"documentId"`
	PromptID   string `json:"promptId"`
}

func (r *startSummaryRequest) validate() error {
	if r.DocumentID == "" {
		return NewValidationError("documentId")
	}
	return nil
}

// Helper methods

func isTerminal(status models.JobStatus) bool {
	return status == models.JobStatusComplete || status == models.JobStatusError
}

func (h *SummaryHandlerImpl) sendSSEData(c echo.Context, data interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(c.Response(), "data: %s\n\n", jsonData)
	c.Response().Flush()
}

func (h *SummaryHandlerImpl) sendSSEError(c echo.Context, message string) {
	h.sendSSEData(c, map[string]string{"error": message})
}
