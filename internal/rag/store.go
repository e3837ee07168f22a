package rag

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
)

// ErrNotIndexed is returned when a search targets a document whose chunks
// were never added to the store.
var ErrNotIndexed = errors.New("document not indexed")

// StoreConfig holds vector store configuration.
type StoreConfig struct {
	PersistPath string // directory to persist embeddings, empty for in-memory
}

// SearchResult is one retrieved chunk with its similarity to the query.
type SearchResult struct {
	ID         string
	Content    string
	ChunkIndex int
	Similarity float32
}

// VectorStore manages chunk embeddings and similarity search. Each
// document gets its own collection, so searches are scoped and removal
// drops the whole collection.
type VectorStore interface {
	// AddChunks stores a document's chunks with their embeddings.
	AddChunks(ctx context.Context, documentID string, chunks []models.Chunk, embeddings [][]float32) error

	// Search returns the chunks of one document most similar to the query.
	Search(ctx context.Context, documentID, query string, topK int) ([]SearchResult, error)

	// HasDocument reports whether a document has an index.
	HasDocument(documentID string) bool

	// DeleteDocument removes a document's index.
	DeleteDocument(documentID string) error

	// Count returns the total number of indexed chunks.
	Count() int
}

// chromemStore implements VectorStore using chromem-go.
type chromemStore struct {
	db        *chromem.DB
	embedFunc chromem.EmbeddingFunc
}

// NewVectorStore creates a vector store, persistent when a path is set.
func NewVectorStore(config StoreConfig, embedder Embedder) (VectorStore, error) {
	var db *chromem.DB
	var err error

	if config.PersistPath != "" {
		db, err = chromem.NewPersistentDB(config.PersistPath, false)
		if err != nil {
			return nil, fmt.Errorf("create persistent DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embedFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}

	return &chromemStore{
		db:        db,
		embedFunc: embedFunc,
	}, nil
}

func collectionName(documentID string) string {
	return "doc-" + documentID
}

// AddChunks stores a document's chunks with their embeddings. len(chunks)
// must equal len(embeddings).
func (s *chromemStore) AddChunks(ctx context.Context, documentID string, chunks []models.Chunk, embeddings [][]float32) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to add")
	}
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}

	collection, err := s.db.GetOrCreateCollection(collectionName(documentID),
		map[string]string{"document_id": documentID}, s.embedFunc)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	for i, chunk := range chunks {
		err := collection.AddDocument(ctx, chromem.Document{
			ID:        fmt.Sprintf("%s-%d", documentID, chunk.Index),
			Content:   chunk.Text,
			Embedding: embeddings[i],
			Metadata: map[string]string{
				"document_id": documentID,
				"chunk_index": strconv.Itoa(chunk.Index),
			},
		})
		if err != nil {
			return fmt.Errorf("add chunk %d: %w", chunk.Index, err)
		}
	}

	return nil
}

// Search returns the chunks of one document most similar to the query.
// topK is clamped to the collection size.
func (s *chromemStore) Search(ctx context.Context, documentID, query string, topK int) ([]SearchResult, error) {
	collection := s.db.GetCollection(collectionName(documentID), s.embedFunc)
	if collection == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, documentID)
	}

	if count := collection.Count(); topK > count {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	results, err := collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	searchResults := make([]SearchResult, 0, len(results))
	for _, r := range results {
		index, _ := strconv.Atoi(r.Metadata["chunk_index"])
		searchResults = append(searchResults, SearchResult{
			ID:         r.ID,
			Content:    r.Content,
			ChunkIndex: index,
			Similarity: r.Similarity,
		})
	}

	return searchResults, nil
}

// HasDocument reports whether a document has an index.
func (s *chromemStore) HasDocument(documentID string) bool {
	return s.db.GetCollection(collectionName(documentID), s.embedFunc) != nil
}

// DeleteDocument removes a document's index.
func (s *chromemStore) DeleteDocument(documentID string) error {
	if err := s.db.DeleteCollection(collectionName(documentID)); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// Count returns the total number of indexed chunks.
func (s *chromemStore) Count() int {
	total := 0
	for _, collection := range s.db.ListCollections() {
		total += collection.Count()
	}
	return total
}
