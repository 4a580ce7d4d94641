package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/storage"
)

type object struct {
	contentType string
	data        []byte
	url         string
}

// Storage implements storage.Storage in memory. Used in development and
// tests when no object store is configured.
type Storage struct {
	mu      sync.RWMutex
	objects map[string]*object
	baseURL string
}

// New creates a new in-memory storage whose URLs are rooted at baseURL.
func New(baseURL string) *Storage {
	return &Storage{
		objects: make(map[string]*object),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload buffers the object and returns its URL.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if input.Data != nil {
		if _, err := io.Copy(&buf, input.Data); err != nil {
			return nil, fmt.Errorf("read upload %s: %w", input.Key, err)
		}
	}

	url := s.baseURL + "/" + input.Key

	s.mu.Lock()
	s.objects[input.Key] = &object{contentType: input.ContentType, data: buf.Bytes(), url: url}
	s.mu.Unlock()

	return &storage.UploadResult{Key: input.Key, URL: url}, nil
}

// Delete removes the object.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; !exists {
		return fmt.Errorf("object not found: %s", key)
	}
	delete(s.objects, key)
	return nil
}

// GetURL returns the URL for the given key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[key]
	if !exists {
		return "", fmt.Errorf("object not found: %s", key)
	}
	return obj.url, nil
}

// Object returns the stored bytes and content type of key.
func (s *Storage) Object(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[key]
	if !exists {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}
