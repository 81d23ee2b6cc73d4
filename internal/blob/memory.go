package blob

import (
	"bytes"
	"io"
	"sync"
)

// MemoryStore is an in-memory blob store used by tests.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Put buffers the content in memory under fileID.
func (s *MemoryStore) Put(fileID string, r io.Reader) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	s.mu.Lock()
	s.blobs[fileID] = data
	s.mu.Unlock()
	return "memory://" + fileID, int64(len(data)), nil
}

// Get returns a reader over the buffered content.
func (s *MemoryStore) Get(fileID string) (io.ReadCloser, error) {
	s.mu.Lock()
	data, ok := s.blobs[fileID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
