// Package storage persists uploaded documents on the local filesystem.
// Each document is a pair of files keyed by ID: the raw content and a
// msgpack metadata sidecar, so the catalog survives restarts.
package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
)

const (
	contentExt = ".pdf"
	metaExt    = ".meta"
)

// Store defines the interface for document storage.
type Store interface {
	Save(name string, r io.Reader) (*models.FileInfo, error)
	ReadBytes(id string) ([]byte, error)
	Get(id string) (*models.FileInfo, error)
	List(limit int) ([]*models.FileInfo, error)
	Delete(id string) error
	UpdateStatus(id string, status string) (*models.FileInfo, error)
	GetFilePath(id string) (string, error)
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	mu   sync.RWMutex
	dir  string
	log  *slog.Logger
	docs map[string]*models.FileInfo
}

// NewLocalStore creates a store rooted at dir, creating it if needed and
// reloading any documents already on disk.
func NewLocalStore(dir string, log *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating document directory: %w", err)
	}

	s := &LocalStore{
		dir:  dir,
		log:  log,
		docs: make(map[string]*models.FileInfo),
	}
	s.scanExisting()

	return s, nil
}

// scanExisting rebuilds the in-memory catalog from metadata sidecars on
// startup. Sidecars without content files are treated as orphans.
func (s *LocalStore) scanExisting() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn("document directory scan failed", "dir", s.dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), metaExt) {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.log.Warn("unreadable metadata sidecar", "file", entry.Name(), "error", err)
			continue
		}

		var info models.FileInfo
		if err := msgpack.Unmarshal(raw, &info); err != nil {
			s.log.Warn("corrupt metadata sidecar", "file", entry.Name(), "error", err)
			continue
		}
		if _, err := os.Stat(s.contentPath(info.ID)); err != nil {
			s.log.Warn("metadata sidecar without content, skipping", "id", info.ID)
			continue
		}

		s.docs[info.ID] = &info
	}

	if len(s.docs) > 0 {
		s.log.Info("reloaded documents from disk", "count", len(s.docs))
	}
}

// Save stores a new document and returns its metadata.
func (s *LocalStore) Save(name string, r io.Reader) (*models.FileInfo, error) {
	id := uuid.New().String()
	path := s.contentPath(id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating document file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing document: %w", err)
	}

	info := &models.FileInfo{
		ID:         id,
		Name:       name,
		Size:       size,
		UploadedAt: time.Now(),
		Status:     "uploaded",
	}

	if err := s.writeMeta(info); err != nil {
		os.Remove(path)
		return nil, err
	}

	s.mu.Lock()
	s.docs[id] = info
	s.mu.Unlock()

	return info, nil
}

// ReadBytes loads a document's full content into memory.
func (s *LocalStore) ReadBytes(id string) ([]byte, error) {
	path, err := s.GetFilePath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", id, err)
	}
	return data, nil
}

// Get retrieves document metadata by ID.
func (s *LocalStore) Get(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	return info, nil
}

// List returns the most recently uploaded documents, newest first. A
// non-positive limit returns everything.
func (s *LocalStore) List(limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.FileInfo, 0, len(s.docs))
	for _, info := range s.docs {
		list = append(list, info)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Delete removes a document and its metadata.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("document not found: %s", id)
	}

	if err := os.Remove(s.contentPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting document: %w", err)
	}
	if err := os.Remove(s.metaPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting document metadata: %w", err)
	}

	delete(s.docs, id)
	return nil
}

// UpdateStatus records a document's processing state and persists it.
func (s *LocalStore) UpdateStatus(id string, status string) (*models.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", id)
	}

	info.Status = status
	if err := s.writeMeta(info); err != nil {
		return nil, err
	}
	return info, nil
}

// GetFilePath returns the absolute path to a document's content.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.docs[id]; !ok {
		return "", fmt.Errorf("document not found: %s", id)
	}
	return s.contentPath(id), nil
}

func (s *LocalStore) contentPath(id string) string {
	return filepath.Join(s.dir, id+contentExt)
}

func (s *LocalStore) metaPath(id string) string {
	return filepath.Join(s.dir, id+metaExt)
}

func (s *LocalStore) writeMeta(info *models.FileInfo) error {
	raw, err := msgpack.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding document metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(info.ID), raw, 0644); err != nil {
		return fmt.Errorf("writing document metadata: %w", err)
	}
	return nil
}
