package relay

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/blob"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/protocol"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/store"
)

func newTestBridge() (*FileBridge, *store.MemoryStore, *Registry, *OfflineQueue) {
	st := store.NewMemoryStore()
	registry := NewRegistry()
	queue := NewOfflineQueue(0)
	router := NewRouter(registry, queue, testLogger())
	return NewFileBridge(st, blob.NewMemoryStore(), router, testLogger()), st, registry, queue
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	bridge, _, _, _ := newTestBridge()
	ctx := context.Background()

	meta, err := bridge.Upload(ctx, "notes.txt", "text/plain", "alice", "", strings.NewReader("file body"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if meta.FileID == "" {
		t.Error("Upload() returned empty file id")
	}
	if meta.FileSize != int64(len("file body")) {
		t.Errorf("FileSize = %d, want %d", meta.FileSize, len("file body"))
	}

	got, content, err := bridge.Download(ctx, meta.FileID)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer content.Close()

	if got.FileName != "notes.txt" || got.MimeType != "text/plain" {
		t.Errorf("metadata = %+v, want notes.txt text/plain", got)
	}
	body, _ := io.ReadAll(content)
	if string(body) != "file body" {
		t.Errorf("content = %q, want %q", body, "file body")
	}
}

func TestUploadValidatesInput(t *testing.T) {
	bridge, _, _, _ := newTestBridge()
	ctx := context.Background()

	tests := []struct {
		name     string
		fileName string
		sender   string
		content  io.Reader
	}{
		{"missing file name", "", "alice", strings.NewReader("x")},
		{"missing sender", "notes.txt", "", strings.NewReader("x")},
		{"missing content", "notes.txt", "alice", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bridge.Upload(ctx, tt.fileName, "", tt.sender, "", tt.content)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Upload() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestUploadNotifiesOnlineRecipient(t *testing.T) {
	bridge, st, registry, _ := newTestBridge()
	ctx := context.Background()

	bob := newFakeConn()
	registry.Register(&Agent{ID: "bob", Conn: bob})

	meta, err := bridge.Upload(ctx, "report.pdf", "application/pdf", "alice", "bob", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	sent := bob.envelopes(t)
	if len(sent) != 1 {
		t.Fatalf("recipient got %d frames, want 1", len(sent))
	}
	notice := sent[0]
	if notice.Type != protocol.TypeFileTransfer {
		t.Errorf("notification type = %s, want FILE_TRANSFER", notice.Type)
	}
	if notice.FileID != meta.FileID || notice.FileName != "report.pdf" ||
		notice.Sender != "alice" || notice.Recipient != "bob" {
		t.Errorf("notification = %+v, want metadata for %s", notice, meta.FileID)
	}

	// The notification is also in the durable log.
	count, _ := st.CountMessages(ctx)
	if count != 1 {
		t.Errorf("logged messages = %d, want 1", count)
	}
}

func TestUploadQueuesForOfflineRecipient(t *testing.T) {
	bridge, _, _, queue := newTestBridge()
	ctx := context.Background()

	meta, err := bridge.Upload(ctx, "report.pdf", "application/pdf", "alice", "bob", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if queue.Len("bob") != 1 {
		t.Fatalf("queue length = %d, want 1", queue.Len("bob"))
	}

	// On flush the queued entry still carries the file metadata.
	var flushed []protocol.Envelope
	queue.Flush("bob", func(m *models.Message) error {
		flushed = append(flushed, *protocol.NewMessage(m))
		return nil
	})
	if len(flushed) != 1 || flushed[0].FileID != meta.FileID {
		t.Errorf("flushed notification = %+v, want file id %s", flushed, meta.FileID)
	}
}

func TestUploadWithoutRecipientNotifiesNobody(t *testing.T) {
	bridge, st, registry, queue := newTestBridge()
	ctx := context.Background()

	bob := newFakeConn()
	registry.Register(&Agent{ID: "bob", Conn: bob})

	if _, err := bridge.Upload(ctx, "notes.txt", "", "alice", "", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if got := len(bob.envelopes(t)); got != 0 {
		t.Errorf("recipient got %d frames for recipientless upload, want 0", got)
	}
	if queue.Len("bob") != 0 {
		t.Errorf("queue length = %d, want 0", queue.Len("bob"))
	}
	count, _ := st.CountMessages(ctx)
	if count != 0 {
		t.Errorf("logged messages = %d, want 0", count)
	}
}

func TestDownloadNotFound(t *testing.T) {
	bridge, st, _, _ := newTestBridge()
	ctx := context.Background()

	// No metadata at all.
	if _, _, err := bridge.Download(ctx, "missing"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Download(missing) error = %v, want ErrFileNotFound", err)
	}

	// Metadata exists but the bytes are gone.
	st.CreateFile(ctx, &models.FileMetadata{FileID: "orphan", FileName: "x", Sender: "alice"})
	if _, _, err := bridge.Download(ctx, "orphan"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Download(orphan) error = %v, want ErrFileNotFound", err)
	}
}
