package rag

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
)

const (
	chunkFilePrefix = "doc_"
	chunkFileExt    = ".chunks"
)

// ChunkIndex persists each document's chunks as a msgpack file keyed by
// document ID. Re-summarizing a document from the recent list then skips
// text extraction and chunking entirely.
type ChunkIndex struct {
	dir string
	log *slog.Logger

	mu    sync.RWMutex
	cache map[string]string // documentID -> chunk file path
}

// NewChunkIndex creates a chunk index rooted at dir, creating it if needed
// and scanning for chunk files left by earlier runs.
func NewChunkIndex(dir string, log *slog.Logger) (*ChunkIndex, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating chunk directory: %w", err)
	}

	idx := &ChunkIndex{
		dir:   dir,
		log:   log,
		cache: make(map[string]string),
	}
	idx.scanExisting()

	return idx, nil
}

// scanExisting scans the chunk directory on startup.
func (ci *ChunkIndex) scanExisting() {
	entries, err := os.ReadDir(ci.dir)
	if err != nil {
		ci.log.Warn("chunk directory scan failed", "dir", ci.dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, chunkFilePrefix) || !strings.HasSuffix(name, chunkFileExt) {
			continue
		}
		documentID := name[len(chunkFilePrefix) : len(name)-len(chunkFileExt)]
		ci.cache[documentID] = filepath.Join(ci.dir, name)
	}

	if len(ci.cache) > 0 {
		ci.log.Info("found existing chunk files", "count", len(ci.cache))
	}
}

// Path returns where a document's chunks are stored.
func (ci *ChunkIndex) Path(documentID string) string {
	return filepath.Join(ci.dir, chunkFilePrefix+documentID+chunkFileExt)
}

// IsIndexed checks whether a document's chunks are on disk.
func (ci *ChunkIndex) IsIndexed(documentID string) bool {
	ci.mu.RLock()
	_, ok := ci.cache[documentID]
	ci.mu.RUnlock()
	if ok {
		return true
	}

	// The file may have been created externally since the startup scan.
	path := ci.Path(documentID)
	if _, err := os.Stat(path); err == nil {
		ci.mu.Lock()
		ci.cache[documentID] = path
		ci.mu.Unlock()
		return true
	}

	return false
}

// Save writes a document's chunks, replacing any previous set.
func (ci *ChunkIndex) Save(documentID string, chunks []models.Chunk) error {
	raw, err := msgpack.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}

	path := ci.Path(documentID)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("writing chunks: %w", err)
	}

	ci.mu.Lock()
	ci.cache[documentID] = path
	ci.mu.Unlock()

	ci.log.Debug("chunks saved", "document", documentID, "count", len(chunks))
	return nil
}

// Load reads a document's chunks. Returns nil with no error when the
// document has no chunk file.
func (ci *ChunkIndex) Load(documentID string) ([]models.Chunk, error) {
	if !ci.IsIndexed(documentID) {
		return nil, nil
	}

	ci.mu.RLock()
	path := ci.cache[documentID]
	ci.mu.RUnlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ci.mu.Lock()
			delete(ci.cache, documentID)
			ci.mu.Unlock()
			return nil, nil
		}
		return nil, fmt.Errorf("reading chunks: %w", err)
	}

	var chunks []models.Chunk
	if err := msgpack.Unmarshal(raw, &chunks); err != nil {
		return nil, fmt.Errorf("decoding chunks: %w", err)
	}

	return chunks, nil
}

// Delete removes a document's chunk file.
func (ci *ChunkIndex) Delete(documentID string) error {
	ci.mu.Lock()
	delete(ci.cache, documentID)
	ci.mu.Unlock()

	if err := os.Remove(ci.Path(documentID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// List returns all document IDs with chunk files.
func (ci *ChunkIndex) List() []string {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	ids := make([]string, 0, len(ci.cache))
	for id := range ci.cache {
		ids = append(ids, id)
	}
	return ids
}

// Stats returns the number of indexed documents and their total size on
// disk. Entries whose files have gone missing are pruned.
func (ci *ChunkIndex) Stats() (count int, totalSize int64) {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	for documentID, path := range ci.cache {
		info, err := os.Stat(path)
		if err != nil {
			delete(ci.cache, documentID)
			continue
		}
		totalSize += info.Size()
	}
	return len(ci.cache), totalSize
}

// CleanupOrphaned removes chunk files whose source document is gone.
// validIDs is the set of document IDs that still exist in storage.
func (ci *ChunkIndex) CleanupOrphaned(validIDs []string) int {
	valid := make(map[string]bool, len(validIDs))
	for _, id := range validIDs {
		valid[id] = true
	}

	ci.mu.Lock()
	defer ci.mu.Unlock()

	removed := 0
	for documentID, path := range ci.cache {
		if valid[documentID] {
			continue
		}
		os.Remove(path)
		delete(ci.cache, documentID)
		removed++
		ci.log.Debug("removed orphaned chunk file", "document", documentID)
	}

	return removed
}
