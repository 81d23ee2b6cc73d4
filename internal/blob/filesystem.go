package blob

import (
	"io"
	"os"
	"path/filepath"
)

// FilesystemStore keeps each uploaded file as a single file named by its id
// under a root directory.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates the root directory if needed.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if root == "" {
		root = "./data/files"
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	return &FilesystemStore{root: root}, nil
}

func (s *FilesystemStore) path(fileID string) string {
	// fileID is server-generated (a UUID), so it is safe as a path element.
	return filepath.Join(s.root, fileID)
}

// Put writes the content to disk and returns its absolute path.
func (s *FilesystemStore) Put(fileID string, r io.Reader) (string, int64, error) {
	path := s.path(fileID)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}
	return path, n, nil
}

// Get opens the stored content.
func (s *FilesystemStore) Get(fileID string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}
