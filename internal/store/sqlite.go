package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/relay.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/relay.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
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
		file_size INTEGER NOT NULL DEFAULT 0,
		mime_type TEXT NOT NULL DEFAULT 'application/octet-stream',
		sender TEXT NOT NULL,
		recipient TEXT,
		storage_location TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
	CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AppendMessage inserts a message keyed by message_id. A duplicate id is a
// no-op; the returned bool reports whether a new row was written.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *models.Message) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages (message_id, sender, recipient, content, timestamp, message_type)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.MessageID, msg.Sender, nullable(msg.Recipient), msg.Content, msg.Timestamp, msg.Type)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// History retrieves messages per the query contract in HistoryQuery.
func (s *SQLiteStore) History(ctx context.Context, q HistoryQuery) ([]models.Message, error) {
	where := ""
	args := []interface{}{}

	if q.Recipient != "" {
		where = "WHERE (recipient IS NULL OR recipient = ?)"
		args = append(args, q.Recipient)
	}

	var query string
	if q.Since != "" {
		clause := "timestamp > ?"
		if where == "" {
			where = "WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, q.Since)
		query = `
			SELECT message_id, sender, recipient, content, timestamp, message_type
			FROM messages ` + where + `
			ORDER BY timestamp ASC, id ASC`
	} else {
		// No cursor: newest Limit rows, presented oldest-first.
		query = `
			SELECT message_id, sender, recipient, content, timestamp, message_type
			FROM (
				SELECT id, message_id, sender, recipient, content, timestamp, message_type
				FROM messages ` + where + `
				ORDER BY timestamp DESC, id DESC
				LIMIT ?
			)
			ORDER BY timestamp ASC, id ASC`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var recipient sql.NullString
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
		msg.Recipient = recipient.String
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CountMessages returns the total number of logged messages.
func (s *SQLiteStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// CreateFile records metadata for an uploaded file.
func (s *SQLiteStore) CreateFile(ctx context.Context, meta *models.FileMetadata) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (file_id, file_name, file_size, mime_type, sender, recipient, storage_location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, meta.FileID, meta.FileName, meta.FileSize, meta.MimeType, meta.Sender,
		nullable(meta.Recipient), meta.StorageLocation, meta.CreatedAt)
	return err
}

// GetFile retrieves file metadata by id. Returns (nil, nil) when no row
// exists.
func (s *SQLiteStore) GetFile(ctx context.Context, fileID string) (*models.FileMetadata, error) {
	meta := &models.FileMetadata{}
	var recipient sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT file_id, file_name, file_size, mime_type, sender, recipient, storage_location, created_at
		FROM files WHERE file_id = ?
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	meta.Recipient = recipient.String
	return meta, nil
}

// nullable maps empty strings to NULL so broadcast rows have no recipient.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
