// handlers_documents.go - Document upload and inspection handlers
package api

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
	"github.com/zainfaisal220/Sumlyzer/internal/pdf"
	"github.com/zainfaisal220/Sumlyzer/internal/preview"
	"github.com/zainfaisal220/Sumlyzer/internal/rag"
	"github.com/zainfaisal220/Sumlyzer/internal/storage"
)

// DocumentHandlerImpl implements the DocumentHandler interface
type DocumentHandlerImpl struct {
	store       storage.Store
	preview     *preview.Chain
	limits      pdf.Limits
	chunks      *rag.ChunkIndex
	vectors     rag.VectorStore
	log         *slog.Logger
	recentLimit int
	allowDelete bool
}

// NewDocumentHandler creates a new document handler instance
func NewDocumentHandler(deps *Dependencies) DocumentHandler {
	return &DocumentHandlerImpl{
		store:       deps.Store,
		preview:     deps.Preview,
		limits:      deps.Limits,
		chunks:      deps.Chunks,
		vectors:     deps.Vectors,
		log:         deps.Log,
		recentLimit: deps.RecentLimit,
		allowDelete: deps.AllowDocumentDeletion,
	}
}

// HandleUpload accepts a document as multipart/form-data, validates it,
// stores it and returns the stored record with its preview
func (h *DocumentHandlerImpl) HandleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("failed to read uploaded file", err)
	}

	return h.processUpload(c, data, file.Filename)
}

// HandleUploadBinary accepts a raw document body with the filename in the
// X-File-Name header
func (h *DocumentHandlerImpl) HandleUploadBinary(c echo.Context) error {
	filename := c.Request().Header.Get("X-File-Name")
	if filename == "" {
		return NewValidationError("X-File-Name")
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read request body", err)
	}

	return h.processUpload(c, data, filename)
}

// processUpload runs the shared validate, preview, store sequence.
func (h *DocumentHandlerImpl) processUpload(c echo.Context, data []byte, filename string) error {
	result, err := pdf.Validate(data, filename, h.limits)
	if err != nil {
		h.log.Warn("upload rejected", "file", filename, "error", err)
		return NewUploadError(err)
	}

	artifact := h.preview.Build(data, result)

	info, err := h.store.Save(result.Filename, bytes.NewReader(data))
	if err != nil {
		return NewInternalError("failed to save document", err)
	}

	h.log.Info("document uploaded",
		"id", info.ID, "name", info.Name, "size", info.Size,
		"encrypted", result.Encrypted, "previewTier", artifact.Tier)

	return c.JSON(http.StatusCreated, documentResponse{
		Document: info,
		Preview:  artifact,
	})
}

// HandleRecentDocuments returns the most recently uploaded documents
func (h *DocumentHandlerImpl) HandleRecentDocuments(c echo.Context) error {
	docs, err := h.store.List(h.recentLimit)
	if err != nil {
		return NewInternalError("failed to list documents", err)
	}

	return c.JSON(http.StatusOK, docs)
}

// HandleGetDocument returns metadata for a specific document
func (h *DocumentHandlerImpl) HandleGetDocument(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("document", id)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleGetPreview re-runs the preview chain over a stored document. The
// chain holds no state between runs, so the same document yields the same
// artifact.
func (h *DocumentHandlerImpl) HandleGetPreview(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("document", id)
	}

	data, err := h.store.ReadBytes(id)
	if err != nil {
		return NewInternalError("failed to read document", err)
	}

	result, err := pdf.Validate(data, info.Name, h.limits)
	if err != nil {
		h.log.Warn("stored document failed validation", "id", id, "error", err)
		return NewUploadError(err)
	}

	artifact := h.preview.Build(data, result)

	return c.JSON(http.StatusOK, documentResponse{
		Document: info,
		Preview:  artifact,
	})
}

// HandleGetChunks returns a page of a document's indexed chunks
func (h *DocumentHandlerImpl) HandleGetChunks(c echo.Context) error {
	pageChunks, total, page, pageSize, err := h.loadChunkPage(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, chunksResponse{
		Chunks:   pageChunks,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// HandleGetChunksMsgpack returns the same chunk page in MessagePack format
func (h *DocumentHandlerImpl) HandleGetChunksMsgpack(c echo.Context) error {
	pageChunks, total, page, pageSize, err := h.loadChunkPage(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(map[string]interface{}{
		"chunks":   pageChunks,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
	if err != nil {
		return NewInternalError("failed to encode chunks", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleDeleteDocument removes a document along with its chunks and vectors
func (h *DocumentHandlerImpl) HandleDeleteDocument(c echo.Context) error {
	if !h.allowDelete {
		return NewForbiddenError("document deletion is disabled")
	}

	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if err := h.store.Delete(id); err != nil {
		return NewNotFoundError("document", id)
	}

	if err := h.chunks.Delete(id); err != nil {
		h.log.Warn("failed to delete chunks", "id", id, "error", err)
	}
	if h.vectors != nil && h.vectors.HasDocument(id) {
		if err := h.vectors.DeleteDocument(id); err != nil {
			h.log.Warn("failed to delete vectors", "id", id, "error", err)
		}
	}

	h.log.Info("document deleted", "id", id)
	return c.NoContent(http.StatusNoContent)
}

// loadChunkPage resolves the document, loads its chunks and slices out the
// requested page.
func (h *DocumentHandlerImpl) loadChunkPage(c echo.Context) ([]models.Chunk, int, int, int, error) {
	id := c.Param("id")
	if id == "" {
		return nil, 0, 0, 0, NewValidationError("id")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 100
	}

	if _, err := h.store.Get(id); err != nil {
		return nil, 0, 0, 0, NewNotFoundError("document", id)
	}

	chunks, err := h.chunks.Load(id)
	if err != nil {
		return nil, 0, 0, 0, NewInternalError("failed to load chunks", err)
	}
	if chunks == nil {
		return nil, 0, 0, 0, NewNotFoundError("chunks for document", id)
	}

	total := len(chunks)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return chunks[start:end], total, page, pageSize, nil
}

// Response types

type documentResponse struct {
	Document *models.FileInfo        `json:"document"`
	Preview  *models.PreviewArtifact `json:"preview"`
}

type chunksResponse struct {
	Chunks   []models.Chunk `json:"chunks"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}
