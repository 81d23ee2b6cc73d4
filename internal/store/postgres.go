package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		message_id TEXT UNIQUE NOT NULL,
		sender TEXT NOT NULL,
		recipient TEXT,
		content TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL,
		message_type TEXT NOT NULL DEFAULT 'MESSAGE'
	);

	CREATE TABLE IF NOT EXISTS files (
		file_id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		mime_type TEXT NOT NULL DEFAULT 'application/octet-stream',
		sender TEXT NOT NULL,
		recipient TEXT,
		storage_location TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
	CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// AppendMessage inserts a message keyed by message_id. A duplicate id is a
// no-op; the returned bool reports whether a new row was written.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg *models.Message) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO messages (message_id, sender, recipient, content, timestamp, message_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id) DO NOTHING
	`, msg.MessageID, msg.Sender, nullable(msg.Recipient), msg.Content, msg.Timestamp, msg.Type)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// History retrieves messages per the query contract in HistoryQuery.
func (s *PostgresStore) History(ctx context.Context, q HistoryQuery) ([]models.Message, error) {
	where := ""
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Recipient != "" {
		where = "WHERE (recipient IS NULL OR recipient = " + arg(q.Recipient) + ")"
	}

	var query string
	if q.Since != "" {
		clause := "timestamp > " + arg(q.Since)
		if where == "" {
			where = "WHERE " + clause
		} else {
			where += " AND " + clause
		}
		query = `
			SELECT message_id, sender, recipient, content, timestamp, message_type
			FROM messages ` + where + `
			ORDER BY timestamp ASC, id ASC`
	} else {
		query = `
			SELECT message_id, sender, recipient, content, timestamp, message_type
			FROM (
				SELECT id, message_id, sender, recipient, content, timestamp, message_type
				FROM messages ` + where + `
				ORDER BY timestamp DESC, id DESC
				LIMIT ` + arg(q.Limit) + `
			) recent
			ORDER BY timestamp ASC, id ASC`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var recipient *string
		if err := rows.Scan(
			&msg.MessageID,
			&msg.Sender,
			&recipient,
			&msg.Content,
			&msg.Timestamp,
			&msg.Type,
		); err != nil {
			return nil, err
		}
		if recipient != nil {
			msg.Recipient = *recipient
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CountMessages returns the total number of logged messages.
func (s *PostgresStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// CreateFile records metadata for an uploaded file.
func (s *PostgresStore) CreateFile(ctx context.Context, meta *models.FileMetadata) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO files (file_id, file_name, file_size, mime_type, sender, recipient, storage_location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, meta.FileID, meta.FileName, meta.FileSize, meta.MimeType, meta.Sender,
		nullable(meta.Recipient), meta.StorageLocation, meta.CreatedAt)
	return err
}

// GetFile retrieves file metadata by id. Returns (nil, nil) when no row
// exists.
func (s *PostgresStore) GetFile(ctx context.Context, fileID string) (*models.FileMetadata, error) {
	meta := &models.FileMetadata{}
	var recipient *string
	err := s.pool.QueryRow(ctx, `
		SELECT file_id, file_name, file_size, mime_type, sender, recipient, storage_location, created_at
		FROM files WHERE file_id = $1
	`, fileID).Scan(
		&meta.FileID,
		&meta.FileName,
		&meta.FileSize,
		&meta.MimeType,
		&meta.Sender,
		&recipient,
		&meta.StorageLocation,
		&meta.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if recipient != nil {
		meta.Recipient = *recipient
	}
	return meta, nil
}
