package blob

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// openStores builds one of each Store implementation so every test runs
// against both.
func openStores(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	return map[string]Store{
		"filesystem": fs,
		"memory":     NewMemoryStore(),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			content := "hello, file bytes"

			location, size, err := st.Put("f1", strings.NewReader(content))
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if location == "" {
				t.Errorf("Put() returned empty location")
			}
			if size != int64(len(content)) {
				t.Errorf("Put() size = %d, want %d", size, len(content))
			}

			rc, err := st.Get("f1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			defer rc.Close()

			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read content: %v", err)
			}
			if string(got) != content {
				t.Errorf("Get() = %q, want %q", got, content)
			}
		})
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get("missing")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestPutOverwritesExisting(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			st.Put("f1", strings.NewReader("old"))
			st.Put("f1", strings.NewReader("new content"))

			rc, err := st.Get("f1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			defer rc.Close()

			got, _ := io.ReadAll(rc)
			if string(got) != "new content" {
				t.Errorf("Get() after overwrite = %q, want %q", got, "new content")
			}
		})
	}
}
