package store

import (
	"context"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
)

// HistoryQuery selects messages from the log. Since is an exclusive RFC3339
// cursor; records strictly newer than it are returned, ascending. With no
// cursor, the most recent Limit records are returned instead (still
// ascending). Recipient narrows the result to messages addressed to that
// agent plus broadcasts.
type HistoryQuery struct {
	Since     string
	Recipient string
	Limit     int
}

// MessageStore defines the durable storage contract for the message log and
// file metadata. SQLiteStore, PostgresStore and MemoryStore implement it.
type MessageStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Message log
	AppendMessage(ctx context.Context, msg *models.Message) (bool, error)
	History(ctx context.Context, q HistoryQuery) ([]models.Message, error)
	CountMessages(ctx context.Context) (int64, error)

	// File metadata
	CreateFile(ctx context.Context, meta *models.FileMetadata) error
	GetFile(ctx context.Context, fileID string) (*models.FileMetadata, error)
}
