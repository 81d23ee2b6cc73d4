package blob

import (
	"errors"
	"io"
)

// ErrNotFound is returned when no bytes exist under the requested file id.
var ErrNotFound = errors.New("blob not found")

// Store persists raw file bytes keyed by file id. FilesystemStore and
// MemoryStore implement it.
type Store interface {
	// Put writes the full content under fileID and returns the storage
	// location recorded in file metadata, plus the byte count written.
	Put(fileID string, r io.Reader) (string, int64, error)

	// Get opens the content stored under fileID. Returns ErrNotFound when
	// nothing was stored.
	Get(fileID string) (io.ReadCloser, error)
}
