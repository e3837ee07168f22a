// handlers_documents_test.go - Tests for document handlers
package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zainfaisal220/Sumlyzer/internal/logging"
	"github.com/zainfaisal220/Sumlyzer/internal/models"
	"github.com/zainfaisal220/Sumlyzer/internal/pdf"
	"github.com/zainfaisal220/Sumlyzer/internal/preview"
	"github.com/zainfaisal220/Sumlyzer/internal/rag"
	"github.com/zainfaisal220/Sumlyzer/internal/testutil"
)

// documentTestEnv bundles a handler with the stores behind it.
type documentTestEnv struct {
	handler DocumentHandler
	store   *testutil.MockStorage
	chunks  *rag.ChunkIndex
}

func newDocumentTestEnv(t *testing.T, limits pdf.Limits, allowDelete bool) *documentTestEnv {
	t.Helper()

	log := logging.Discard()
	store := testutil.NewMockStorage()
	chunks, err := rag.NewChunkIndex(t.TempDir(), log)
	if err != nil {
		t.Fatalf("Failed to create chunk index: %v", err)
	}

	deps := &Dependencies{
		Store:                 store,
		Preview:               preview.NewChain(preview.DefaultConfig(), log),
		Limits:                limits,
		Chunks:                chunks,
		Log:                   log,
		RecentLimit:           20,
		AllowDocumentDeletion: allowDelete,
	}

	return &documentTestEnv{
		handler: NewDocumentHandler(deps),
		store:   store,
		chunks:  chunks,
	}
}

// multipartBody builds a multipart form with a single "file" part.
func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	writer.Close()

	return &body, writer.FormDataContentType()
}

func TestDocumentHandler_HandleUpload(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		data       []byte
		wantStatus int
		wantErr    bool
		errCode    string
		wantTier   models.PreviewTier
	}{
		{
			name:       "valid pdf",
			filename:   "report.pdf",
			data:       testutil.MinimalPDF(testutil.WithText("quarterly revenue grew")),
			wantStatus: http.StatusCreated,
			wantTier:   models.TierInline,
		},
		{
			name:       "wrong extension",
			filename:   "notes.txt",
			data:       []byte("plain text"),
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    CodeWrongExtension,
		},
		{
			name:       "empty file",
			filename:   "empty.pdf",
			data:       []byte{},
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    CodeEmptyFile,
		},
		{
			name:       "bad signature",
			filename:   "fake.pdf",
			data:       []byte("not a pdf at all"),
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    CodeBadSignature,
		},
		{
			name:       "corrupted structure",
			filename:   "broken.pdf",
			data:       testutil.GarbagePDF(),
			wantStatus: http.StatusUnprocessableEntity,
			wantErr:    true,
			errCode:    CodeCorruptedFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newDocumentTestEnv(t, pdf.Limits{HardCap: 100 << 20}, true)

			body, contentType := multipartBody(t, tt.filename, tt.data)
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := env.handler.HandleUpload(c)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
					return
				}
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Errorf("expected APIError, got %T", err)
					return
				}
				if apiErr.Status != tt.wantStatus {
					t.Errorf("expected status %d, got %d", tt.wantStatus, apiErr.Status)
				}
				if apiErr.Code != tt.errCode {
					t.Errorf("expected error code %s, got %s", tt.errCode, apiErr.Code)
				}
				if env.store.DocumentCount() != 0 {
					t.Error("rejected upload should not be stored")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp documentResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Errorf("failed to unmarshal response: %v", err)
				return
			}
			if resp.Document == nil || resp.Document.ID == "" {
				t.Error("expected stored document in response")
			}
			if resp.Preview == nil || resp.Preview.Tier != tt.wantTier {
				t.Errorf("expected preview tier %s, got %+v", tt.wantTier, resp.Preview)
			}
		})
	}
}

func TestDocumentHandler_HandleUpload_TooLarge(t *testing.T) {
	env := newDocumentTestEnv(t, pdf.Limits{HardCap: 1024}, true)

	data := testutil.MinimalPDF(testutil.WithPadding(8 * 1024))
	body, contentType := multipartBody(t, "big.pdf", data)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := env.handler.HandleUpload(c)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", apiErr.Status)
	}
	if apiErr.Code != CodeFileTooLarge {
		t.Errorf("expected error code %s, got %s", CodeFileTooLarge, apiErr.Code)
	}
}

func TestDocumentHandler_HandleUpload_NoFile(t *testing.T) {
	env := newDocumentTestEnv(t, pdf.Limits{}, true)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := env.handler.HandleUpload(c)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "BAD_REQUEST" {
		t.Errorf("expected BAD_REQUEST, got %s", apiErr.Code)
	}
}

func TestDocumentHandler_HandleUploadBinary(t *testing.T) {
	t.Run("valid upload", func(t *testing.T) {
		env := newDocumentTestEnv(t, pdf.Limits{}, true)

		data := testutil.MinimalPDF(testutil.WithText("binary upload path"))
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload/binary", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/pdf")
		req.Header.Set("X-File-Name", "direct.pdf")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := env.handler.HandleUploadBinary(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d", rec.Code)
		}

		var resp documentResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Document.Name != "direct.pdf" {
			t.Errorf("expected name direct.pdf, got %s", resp.Document.Name)
		}
	})

	t.Run("missing filename header", func(t *testing.T) {
		env := newDocumentTestEnv(t, pdf.Limits{}, true)

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload/binary", bytes.NewReader([]byte("x")))
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := env.handler.HandleUploadBinary(c)
		apiErr, ok := err.(*APIError)
		if !ok {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("expected VALIDATION_ERROR, got %s", apiErr.Code)
		}
	})
}

func TestDocumentHandler_HandleGetDocument(t *testing.T) {
	tests := []struct {
		name       string
		documentID string
		seed       bool
		wantStatus int
		wantErr    bool
		errCode    string
	}{
		{
			name:       "existing document",
			documentID: "doc-1",
			seed:       true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing id",
			documentID: "",
			wantStatus: http.StatusBadRequest,
			wantErr:    true,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "unknown document",
			documentID: "nope",
			wantStatus: http.StatusNotFound,
			wantErr:    true,
			errCode:    "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newDocumentTestEnv(t, pdf.Limits{}, true)
			if tt.seed {
				env.store.AddDocument("doc-1", "seeded.pdf", testutil.MinimalPDF())
			}

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/documents/:id", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.documentID)

			err := env.handler.HandleGetDocument(c)

			if tt.wantErr {
				apiErr, ok := err.(*APIError)
				if !ok {
					t.Fatalf("expected APIError, got %v", err)
				}
				if apiErr.Status != tt.wantStatus || apiErr.Code != tt.errCode {
					t.Errorf("expected %d/%s, got %d/%s",
						tt.wantStatus, tt.errCode, apiErr.Status, apiErr.Code)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var info models.FileInfo
			if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if info.ID != tt.documentID {
				t.Errorf("expected ID %s, got %s", tt.documentID, info.ID)
			}
		})
	}
}

func TestDocumentHandler_HandleGetPreview(t *testing.T) {
	env := newDocumentTestEnv(t, pdf.Limits{}, true)
	env.store.AddDocument("doc-1", "stored.pdf",
		testutil.MinimalPDF(testutil.WithText("stored content")))

	e := echo.New()

	previewOnce := func() *documentResponse {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/:id/preview", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("doc-1")

		if err := env.handler.HandleGetPreview(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var resp documentResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		return &resp
	}

	first := previewOnce()
	if first.Preview.Tier != models.TierInline {
		t.Errorf("expected inline tier, got %s", first.Preview.Tier)
	}

	// Re-running the chain yields the same artifact.
	second := previewOnce()
	if second.Preview.Tier != first.Preview.Tier {
		t.Errorf("preview changed between runs: %s vs %s", first.Preview.Tier, second.Preview.Tier)
	}
	if second.Preview.Inline.Data != first.Preview.Inline.Data {
		t.Error("inline payload changed between runs")
	}

	t.Run("unknown document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/:id/preview", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("missing")

		err := env.handler.HandleGetPreview(c)
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Status != http.StatusNotFound {
			t.Errorf("expected 404, got %v", err)
		}
	})
}

func TestDocumentHandler_HandleGetPreview_Encrypted(t *testing.T) {
	env := newDocumentTestEnv(t, pdf.Limits{}, true)
	env.store.AddDocument("enc-1", "locked.pdf",
		testutil.MinimalPDF(testutil.WithEncryptMarker()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/documents/:id/preview", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("enc-1")

	if err := env.handler.HandleGetPreview(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp documentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Preview.Tier != models.TierMetadata {
		t.Errorf("expected metadata tier for encrypted document, got %s", resp.Preview.Tier)
	}
	if resp.Preview.Metadata == nil || !resp.Preview.Metadata.Encrypted {
		t.Error("expected encrypted flag in metadata preview")
	}
}

func TestDocumentHandler_HandleGetChunks(t *testing.T) {
	env := newDocumentTestEnv(t, pdf.Limits{}, true)
	env.store.AddDocument("doc-1", "chunked.pdf", testutil.MinimalPDF())

	stored := []models.Chunk{
		{Index: 0, Text: "first chunk", Tokens: 3},
		{Index: 1, Text: "second chunk", Tokens: 3},
		{Index: 2, Text: "third chunk", Tokens: 3},
	}
	if err := env.chunks.Save("doc-1", stored); err != nil {
		t.Fatalf("Failed to save chunks: %v", err)
	}

	e := echo.New()

	t.Run("full page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/:id/chunks", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("doc-1")

		if err := env.handler.HandleGetChunks(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var resp chunksResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Total != 3 || len(resp.Chunks) != 3 {
			t.Errorf("expected 3 chunks, got total=%d len=%d", resp.Total, len(resp.Chunks))
		}
		if resp.Page != 1 || resp.PageSize != 100 {
			t.Errorf("unexpected pagination defaults: page=%d pageSize=%d", resp.Page, resp.PageSize)
		}
	})

	t.Run("second page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/:id/chunks?page=2&pageSize=2", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("doc-1")

		if err := env.handler.HandleGetChunks(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var resp chunksResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Total != 3 || len(resp.Chunks) != 1 {
			t.Errorf("expected 1 chunk on page 2, got total=%d len=%d", resp.Total, len(resp.Chunks))
		}
		if resp.Chunks[0].Index != 2 {
			t.Errorf("expected chunk index 2, got %d", resp.Chunks[0].Index)
		}
	})

	t.Run("document without chunks", func(t *testing.T) {
		env.store.AddDocument("doc-2", "fresh.pdf", testutil.MinimalPDF())

		req := httptest.NewRequest(http.MethodGet, "/api/documents/:id/chunks", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("doc-2")

		err := env.handler.HandleGetChunks(c)
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Status != http.StatusNotFound {
			t.Errorf("expected 404, got %v", err)
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/:id/chunks", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("missing")

		err := env.handler.HandleGetChunks(c)
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Status != http.StatusNotFound {
			t.Errorf("expected 404, got %v", err)
		}
	})
}

func TestDocumentHandler_HandleGetChunksMsgpack(t *testing.T) {
	env := newDocumentTestEnv(t, pdf.Limits{}, true)
	env.store.AddDocument("doc-1", "chunked.pdf", testutil.MinimalPDF())

	stored := []models.Chunk{
		{Index: 0, Text: "alpha", Tokens: 1},
		{Index: 1, Text: "beta", Tokens: 1},
	}
	if err := env.chunks.Save("doc-1", stored); err != nil {
		t.Fatalf("Failed to save chunks: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/documents/:id/chunks/msgpack", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("doc-1")

	if err := env.handler.HandleGetChunksMsgpack(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/msgpack" {
		t.Errorf("expected application/msgpack, got %s", got)
	}

	var resp struct {
		Chunks []models.Chunk `msgpack:"chunks"`
		Total  int            `msgpack:"total"`
	}
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal msgpack response: %v", err)
	}
	if resp.Total != 2 || len(resp.Chunks) != 2 {
		t.Errorf("expected 2 chunks, got total=%d len=%d", resp.Total, len(resp.Chunks))
	}
	if resp.Chunks[0].Text != "alpha" {
		t.Errorf("expected first chunk alpha, got %s", resp.Chunks[0].Text)
	}
}

func TestDocumentHandler_HandleDeleteDocument(t *testing.T) {
	t.Run("delete cascades to chunks", func(t *testing.T) {
		env := newDocumentTestEnv(t, pdf.Limits{}, true)
		env.store.AddDocument("doc-1", "gone.pdf", testutil.MinimalPDF())
		if err := env.chunks.Save("doc-1", []models.Chunk{{Index: 0, Text: "x"}}); err != nil {
			t.Fatalf("Failed to save chunks: %v", err)
		}

		e := echo.New()
		req := httptest.NewRequest(http.MethodDelete, "/api/documents/:id", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("doc-1")

		if err := env.handler.HandleDeleteDocument(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rec.Code)
		}
		if env.store.DocumentCount() != 0 {
			t.Error("document should have been deleted")
		}
		if env.chunks.IsIndexed("doc-1") {
			t.Error("chunks should have been deleted")
		}
	})

	t.Run("deletion disabled", func(t *testing.T) {
		env := newDocumentTestEnv(t, pdf.Limits{}, false)
		env.store.AddDocument("doc-1", "kept.pdf", testutil.MinimalPDF())

		e := echo.New()
		req := httptest.NewRequest(http.MethodDelete, "/api/documents/:id", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("doc-1")

		err := env.handler.HandleDeleteDocument(c)
		apiErr, ok := err.(*APIError)
		if !ok {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != http.StatusForbidden || apiErr.Code != "FORBIDDEN" {
			t.Errorf("expected 403 FORBIDDEN, got %d %s", apiErr.Status, apiErr.Code)
		}
		if env.store.DocumentCount() != 1 {
			t.Error("document should not have been deleted")
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		env := newDocumentTestEnv(t, pdf.Limits{}, true)

		e := echo.New()
		req := httptest.NewRequest(http.MethodDelete, "/api/documents/:id", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("nope")

		err := env.handler.HandleDeleteDocument(c)
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Status != http.StatusNotFound {
			t.Errorf("expected 404, got %v", err)
		}
	})
}

func TestDocumentHandler_HandleRecentDocuments(t *testing.T) {
	env := newDocumentTestEnv(t, pdf.Limits{}, true)
	env.store.AddDocument("doc-1", "a.pdf", testutil.MinimalPDF())
	env.store.AddDocument("doc-2", "b.pdf", testutil.MinimalPDF())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/documents/recent", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := env.handler.HandleRecentDocuments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var docs []models.FileInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents, got %d", len(docs))
	}
}
