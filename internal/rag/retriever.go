package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// RetrieverConfig holds retrieval configuration.
type RetrieverConfig struct {
	TopK int // chunks to retrieve per query (default: 4)
}

// Retriever finds the chunks of a document most relevant to a query. It
// prefers vector search and falls back to lexical term overlap when the
// document was never embedded, so summarization still works without an
// embedding endpoint.
type Retriever struct {
	config RetrieverConfig
	store  VectorStore
	chunks *ChunkIndex
	log    *slog.Logger
}

// NewRetriever creates a new retriever.
func NewRetriever(config RetrieverConfig, store VectorStore, chunks *ChunkIndex, log *slog.Logger) *Retriever {
	if config.TopK == 0 {
		config.TopK = 4
	}

	return &Retriever{
		config: config,
		store:  store,
		chunks: chunks,
		log:    log,
	}
}

// Retrieve returns the most relevant chunks of one document for a query.
func (r *Retriever) Retrieve(ctx context.Context, documentID, query string) ([]SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	if r.store != nil && r.store.HasDocument(documentID) {
		results, err := r.store.Search(ctx, documentID, query, r.config.TopK)
		if err == nil && len(results) > 0 {
			return results, nil
		}
		if err != nil {
			r.log.Warn("vector search failed, falling back to lexical",
				"document", documentID, "error", err)
		}
	}

	return r.lexicalSearch(documentID, query)
}

// BuildContext joins retrieved chunk contents into a single prompt context.
func BuildContext(results []SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, result := range results {
		parts = append(parts, result.Content)
	}
	return strings.Join(parts, "\n\n")
}

// lexicalSearch scores chunks by query term overlap. It is a degraded mode
// and its scores are term ratios, not cosine similarities.
func (r *Retriever) lexicalSearch(documentID, query string) ([]SearchResult, error) {
	chunks, err := r.chunks.Load(documentID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, documentID)
	}

	terms := queryTerms(query)

	type scored struct {
		result SearchResult
		hits   int
	}
	candidates := make([]scored, 0, len(chunks))
	for _, chunk := range chunks {
		lower := strings.ToLower(chunk.Text)
		hits := 0
		for term := range terms {
			if strings.Contains(lower, term) {
				hits++
			}
		}
		candidates = append(candidates, scored{
			result: SearchResult{
				ID:         fmt.Sprintf("%s-%d", documentID, chunk.Index),
				Content:    chunk.Text,
				ChunkIndex: chunk.Index,
				Similarity: float32(hits) / float32(max(len(terms), 1)),
			},
			hits: hits,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].hits > candidates[j].hits
	})

	topK := r.config.TopK
	if topK > len(candidates) {
		topK = len(candidates)
	}

	results := make([]SearchResult, 0, topK)
	for _, c := range candidates[:topK] {
		results = append(results, c.result)
	}
	return results, nil
}

// queryTerms lowercases and splits a query, dropping short stopword-like
// terms that would match everything.
func queryTerms(query string) map[string]bool {
	terms := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(query)) {
		term := strings.Trim(field, ".,!?:;\"'()")
		if len(term) > 2 {
			terms[term] = true
		}
	}
	return terms
}
