package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore is an in-process ObjectStore for tests.
type MemoryStore struct {
	bucket  string
	baseURL string

	mu      sync.Mutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

var _ ObjectStore = (*MemoryStore)(nil)

func NewMemoryStore(baseURL, bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		baseURL: baseURL,
		objects: make(map[string]memoryObject),
	}
}

func (s *MemoryStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("read object %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; ok {
		return "", fmt.Errorf("%s: %w", key, ErrObjectExists)
	}
	s.objects[key] = memoryObject{data: buf.Bytes(), contentType: contentType}

	return s.PublicURL(key), nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) PublicURL(key string) string {
	return publicURL(s.baseURL, s.bucket, key)
}

func (s *MemoryStore) KeyFromURL(rawURL string) (string, bool) {
	return keyFromURL(rawURL, s.baseURL, s.bucket)
}

// Object returns the stored bytes and content type of key.
func (s *MemoryStore) Object(key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
