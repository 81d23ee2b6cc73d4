package store

import (
	"context"
	"sort"
	"sync"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
)

// MemoryStore is an in-memory MessageStore used by tests and by deployments
// that don't need the log to survive restarts.
type MemoryStore struct {
	mu       sync.Mutex
	messages []models.Message
	seen     map[string]bool
	files    map[string]models.FileMetadata
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seen:  make(map[string]bool),
		files: make(map[string]models.FileMetadata),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// AppendMessage inserts a message keyed by message_id. A duplicate id is a
// no-op; the returned bool reports whether the message was stored.
func (s *MemoryStore) AppendMessage(ctx context.Context, msg *models.Message) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen[msg.MessageID] {
		return false, nil
	}
	s.seen[msg.MessageID] = true
	s.messages = append(s.messages, *msg)
	return true, nil
}

// History retrieves messages per the query contract in HistoryQuery.
func (s *MemoryStore) History(ctx context.Context, q HistoryQuery) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Message
	for _, msg := range s.messages {
		if q.Recipient != "" && msg.Recipient != "" && msg.Recipient != q.Recipient {
			continue
		}
		if q.Since != "" && msg.Timestamp <= q.Since {
			continue
		}
		matched = append(matched, msg)
	}

	// Insertion order already breaks timestamp ties; a stable sort keeps it.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp < matched[j].Timestamp
	})

	if q.Since == "" && q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[len(matched)-q.Limit:]
	}
	return matched, nil
}

// CountMessages returns the total number of logged messages.
func (s *MemoryStore) CountMessages(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.messages)), nil
}

// CreateFile records metadata for an uploaded file.
func (s *MemoryStore) CreateFile(ctx context.Context, meta *models.FileMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[meta.FileID] = *meta
	return nil
}

// GetFile retrieves file metadata by id. Returns (nil, nil) when no entry
// exists.
func (s *MemoryStore) GetFile(ctx context.Context, fileID string) (*models.FileMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.files[fileID]
	if !ok {
		return nil, nil
	}
	return &meta, nil
}
