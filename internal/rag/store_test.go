package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
)

// stubEmbedder maps keywords to fixed unit vectors so similarity ranking
// is deterministic without an API.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return keywordVector(text), nil
}

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = keywordVector(text)
	}
	return out, nil
}

func keywordVector(text string) []float32 {
	switch {
	case strings.Contains(text, "alpha"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "beta"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func testChunks() ([]models.Chunk, [][]float32) {
	chunks := []models.Chunk{
		{Index: 0, Text: "alpha section of the document"},
		{Index: 1, Text: "beta section of the document"},
		{Index: 2, Text: "gamma section of the document"},
	}
	embeddings := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	return chunks, embeddings
}

func TestVectorStore_SearchScopedToDocument(t *testing.T) {
	ctx := context.Background()
	store, err := NewVectorStore(StoreConfig{PersistPath: t.TempDir()}, stubEmbedder{})
	if err != nil {
		t.Fatalf("new vector store: %v", err)
	}

	chunks, embeddings := testChunks()
	if err := store.AddChunks(ctx, "doc-1", chunks, embeddings); err != nil {
		t.Fatalf("add chunks: %v", err)
	}

	results, err := store.Search(ctx, "doc-1", "tell me about alpha", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ChunkIndex != 0 {
		t.Errorf("expected alpha chunk first, got index %d", results[0].ChunkIndex)
	}
	if !strings.Contains(results[0].Content, "alpha") {
		t.Errorf("expected alpha content, got %q", results[0].Content)
	}
}

func TestVectorStore_TopKClampedToCollectionSize(t *testing.T) {
	ctx := context.Background()
	store, err := NewVectorStore(StoreConfig{}, stubEmbedder{})
	if err != nil {
		t.Fatalf("new vector store: %v", err)
	}

	chunks, embeddings := testChunks()
	if err := store.AddChunks(ctx, "doc-1", chunks, embeddings); err != nil {
		t.Fatalf("add chunks: %v", err)
	}

	results, err := store.Search(ctx, "doc-1", "anything", 10)
	if err != nil {
		t.Fatalf("search with oversized topK: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected all 3 chunks, got %d", len(results))
	}
}

func TestVectorStore_UnknownDocument(t *testing.T) {
	store, err := NewVectorStore(StoreConfig{}, stubEmbedder{})
	if err != nil {
		t.Fatalf("new vector store: %v", err)
	}

	if store.HasDocument("missing") {
		t.Error("expected HasDocument false for unknown document")
	}

	_, err = store.Search(context.Background(), "missing", "query", 4)
	if !errors.Is(err, ErrNotIndexed) {
		t.Errorf("expected ErrNotIndexed, got %v", err)
	}
}

func TestVectorStore_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	store, err := NewVectorStore(StoreConfig{}, stubEmbedder{})
	if err != nil {
		t.Fatalf("new vector store: %v", err)
	}

	chunks, embeddings := testChunks()
	if err := store.AddChunks(ctx, "doc-1", chunks, embeddings); err != nil {
		t.Fatalf("add chunks: %v", err)
	}
	if got := store.Count(); got != 3 {
		t.Fatalf("expected count 3, got %d", got)
	}

	if err := store.DeleteDocument("doc-1"); err != nil {
		t.Fatalf("delete document: %v", err)
	}
	if store.HasDocument("doc-1") {
		t.Error("expected document gone after delete")
	}
	if got := store.Count(); got != 0 {
		t.Errorf("expected count 0 after delete, got %d", got)
	}
}

func TestVectorStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewVectorStore(StoreConfig{PersistPath: dir}, stubEmbedder{})
	if err != nil {
		t.Fatalf("new vector store: %v", err)
	}
	chunks, embeddings := testChunks()
	if err := first.AddChunks(ctx, "doc-1", chunks, embeddings); err != nil {
		t.Fatalf("add chunks: %v", err)
	}

	second, err := NewVectorStore(StoreConfig{PersistPath: dir}, stubEmbedder{})
	if err != nil {
		t.Fatalf("reopen vector store: %v", err)
	}
	if !second.HasDocument("doc-1") {
		t.Fatal("expected document to survive reopen")
	}
	if got := second.Count(); got != 3 {
		t.Errorf("expected count 3 after reopen, got %d", got)
	}
}
