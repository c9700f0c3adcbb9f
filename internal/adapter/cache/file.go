package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/property-distress-service/internal/domain"
)

// FileStore persists the cache as one JSON object mapping address hash to
// entry. Every Put rewrites the file through a temp file and rename.
type FileStore struct {
	path    string
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[string]json.RawMessage
}

// NewFileStore opens the cache file at path. A missing file starts empty. A
// file that is not a JSON object is logged and ignored, then replaced on the
// next Put.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		logger:  logger,
		entries: make(map[string]json.RawMessage),
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	if len(b) > 0 {
		if err := json.Unmarshal(b, &s.entries); err != nil {
			logger.Warn("cache file is corrupt, starting empty", "path", path, "error", err)
			s.entries = make(map[string]json.RawMessage)
		}
	}
	return s, nil
}

func (s *FileStore) Get(_ context.Context, key string) (domain.CacheEntry, bool, error) {
	s.mu.Lock()
	raw, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return domain.CacheEntry{}, false, nil
	}

	e, err := decodeEntry(key, raw)
	if err != nil {
		return domain.CacheEntry{}, false, err
	}
	return e, true, nil
}

func (s *FileStore) Put(_ context.Context, e domain.CacheEntry) error {
	b, err := encodeEntry(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Key] = b
	return s.flush()
}

// Clear removes every entry and the file on disk.
func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]json.RawMessage)
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Len returns the number of stored entries.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// CheckReadiness verifies the cache directory is writable.
func (s *FileStore) CheckReadiness(context.Context) error {
	dir := filepath.Dir(s.path)
	f, err := os.CreateTemp(dir, ".readyz-*")
	if err != nil {
		return fmt.Errorf("cache directory not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// flush must be called with s.mu held.
func (s *FileStore) flush() error {
	b, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
