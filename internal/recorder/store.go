package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrArtifactNotFound is returned for unknown or revoked artifacts.
var ErrArtifactNotFound = errors.New("recording not found")

// Artifact is a finished recording. URL stays valid until the artifact is
// revoked.
type Artifact struct {
	ID        string    `json:"id"`
	MIMEType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// ArtifactStore holds recordings and hands out their URLs. Revoke releases
// both the bytes and the URL; revoking an unknown ID is not an error.
type ArtifactStore interface {
	Put(ctx context.Context, mimeType string, data []byte) (Artifact, error)
	Open(id string) (io.ReadCloser, Artifact, error)
	Revoke(id string) error
}

// MemoryStore keeps recordings in memory under URLs of the form
// prefix+id, for serving over HTTP.
type MemoryStore struct {
	prefix string

	mu    sync.RWMutex
	items map[string]memoryItem
}

type memoryItem struct {
	art  Artifact
	data []byte
}

// NewMemoryStore creates a store whose URLs start with prefix, e.g.
// "/recordings/".
func NewMemoryStore(prefix string) *MemoryStore {
	return &MemoryStore{prefix: prefix, items: make(map[string]memoryItem)}
}

func (s *MemoryStore) Put(_ context.Context, mimeType string, data []byte) (Artifact, error) {
	id := uuid.NewString()
	art := Artifact{
		ID:        id,
		MIMEType:  mimeType,
		Size:      int64(len(data)),
		URL:       s.prefix + id,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.items[id] = memoryItem{art: art, data: bytes.Clone(data)}
	s.mu.Unlock()
	return art, nil
}

func (s *MemoryStore) Open(id string) (io.ReadCloser, Artifact, error) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, Artifact{}, ErrArtifactNotFound
	}
	return io.NopCloser(bytes.NewReader(item.data)), item.art, nil
}

func (s *MemoryStore) Revoke(id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// Len reports how many artifacts are live.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// FileStore keeps recordings as files in a directory and hands out file://
// URLs. Revoke deletes the file.
type FileStore struct {
	dir string

	mu    sync.Mutex
	items map[string]Artifact
}

// NewFileStore stores files under dir, or under a fresh temporary
// directory when dir is empty.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := os.MkdirTemp("", "ielts-coach-recordings-")
		if err != nil {
			return nil, fmt.Errorf("create recording dir: %w", err)
		}
		dir = d
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording dir: %w", err)
	}
	return &FileStore{dir: dir, items: make(map[string]Artifact)}, nil
}

// Dir returns the directory holding the files.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".webm")
}

func (s *FileStore) Put(_ context.Context, mimeType string, data []byte) (Artifact, error) {
	id := uuid.NewString()
	p := s.path(id)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return Artifact{}, fmt.Errorf("write recording: %w", err)
	}

	art := Artifact{
		ID:        id,
		MIMEType:  mimeType,
		Size:      int64(len(data)),
		URL:       (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String(),
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.items[id] = art
	s.mu.Unlock()
	return art, nil
}

func (s *FileStore) Open(id string) (io.ReadCloser, Artifact, error) {
	s.mu.Lock()
	art, ok := s.items[id]
	s.mu.Unlock()
	if !ok {
		return nil, Artifact{}, ErrArtifactNotFound
	}
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, Artifact{}, fmt.Errorf("open recording: %w", err)
	}
	return f, art, nil
}

func (s *FileStore) Revoke(id string) error {
	s.mu.Lock()
	_, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove recording: %w", err)
	}
	return nil
}
