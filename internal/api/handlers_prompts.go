// handlers_prompts.go - Prompt profile handlers
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zainfaisal220/Sumlyzer/internal/rag"
)

// PromptHandlerImpl implements the PromptHandler interface
type PromptHandlerImpl struct {
	prompts     *rag.PromptRegistry
	promptsFile string
	log         *slog.Logger
}

// NewPromptHandler creates a new prompt handler instance
func NewPromptHandler(prompts *rag.PromptRegistry, promptsFile string, log *slog.Logger) PromptHandler {
	return &PromptHandlerImpl{
		prompts:     prompts,
		promptsFile: promptsFile,
		log:         log,
	}
}

// HandleListPrompts returns all registered prompt profiles
func (h *PromptHandlerImpl) HandleListPrompts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.prompts.List())
}

// HandleUploadPrompt registers prompt profiles from an uploaded YAML file.
// Profiles with an existing ID replace the previous version; only the
// built-in default is protected.
func (h *PromptHandlerImpl) HandleUploadPrompt(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	profiles, err := rag.ParsePromptProfilesFromReader(src)
	if err != nil {
		return NewBadRequestError("invalid prompt profile file", err)
	}
	if len(profiles) == 0 {
		return NewBadRequestError("no profiles in file", nil)
	}

	added := 0
	for _, profile := range profiles {
		if err := h.prompts.Add(profile); err != nil {
			if strings.Contains(err.Error(), "built-in") {
				return NewConflictError(err.Error())
			}
			return NewBadRequestError("invalid prompt profile", err)
		}
		added++
	}

	if h.promptsFile != "" {
		if err := h.prompts.SaveFile(h.promptsFile); err != nil {
			h.log.Warn("failed to persist prompt profiles", "path", h.promptsFile, "error", err)
		}
	}

	h.log.Info("prompt profiles uploaded", "file", file.Filename, "added", added)

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"added":    added,
		"profiles": h.prompts.List(),
	})
}
