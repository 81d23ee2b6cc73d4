package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
)

// openStores builds one of each MessageStore implementation so every test
// runs against both.
func openStores(t *testing.T) map[string]MessageStore {
	t.Helper()
	ctx := context.Background()

	sqlite, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "relay.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(sqlite.Close)

	return map[string]MessageStore{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func testMessage(id, sender, recipient, ts string) *models.Message {
	return &models.Message{
		MessageID: id,
		Sender:    sender,
		Recipient: recipient,
		Content:   "content-" + id,
		Timestamp: ts,
		Type:      models.TypeMessage,
	}
}

func TestAppendMessageIdempotent(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			msg := testMessage("m1", "alice", "", "2026-08-01T10:00:00Z")

			inserted, err := st.AppendMessage(ctx, msg)
			if err != nil {
				t.Fatalf("AppendMessage() error = %v", err)
			}
			if !inserted {
				t.Errorf("first AppendMessage() inserted = false, want true")
			}

			// Same id, different content: must be a no-op.
			dup := testMessage("m1", "bob", "", "2026-08-02T10:00:00Z")
			inserted, err = st.AppendMessage(ctx, dup)
			if err != nil {
				t.Fatalf("duplicate AppendMessage() error = %v", err)
			}
			if inserted {
				t.Errorf("duplicate AppendMessage() inserted = true, want false")
			}

			count, err := st.CountMessages(ctx)
			if err != nil {
				t.Fatalf("CountMessages() error = %v", err)
			}
			if count != 1 {
				t.Errorf("CountMessages() = %d, want 1", count)
			}

			history, err := st.History(ctx, HistoryQuery{Limit: 10})
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(history) != 1 || history[0].Sender != "alice" {
				t.Errorf("History() = %+v, want the original record only", history)
			}
		})
	}
}

func TestHistoryCursor(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st.AppendMessage(ctx, testMessage("m1", "alice", "", "2026-08-01T10:00:00Z"))
			st.AppendMessage(ctx, testMessage("m2", "bob", "", "2026-08-01T11:00:00Z"))
			st.AppendMessage(ctx, testMessage("m3", "carol", "", "2026-08-01T12:00:00Z"))

			full, err := st.History(ctx, HistoryQuery{Limit: 10})
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(full) != 3 {
				t.Fatalf("full history = %d records, want 3", len(full))
			}
			for i := 1; i < len(full); i++ {
				if full[i-1].Timestamp > full[i].Timestamp {
					t.Errorf("history not ascending: %s before %s",
						full[i-1].Timestamp, full[i].Timestamp)
				}
			}

			// Cursor is exclusive: records strictly after it.
			since, err := st.History(ctx, HistoryQuery{Since: "2026-08-01T11:00:00Z"})
			if err != nil {
				t.Fatalf("History(since) error = %v", err)
			}
			if len(since) != 1 || since[0].MessageID != "m3" {
				t.Errorf("History(since) = %+v, want just m3", since)
			}

			// Cursored result is a suffix of the full result, same order.
			if since[0].MessageID != full[2].MessageID {
				t.Errorf("cursored record %s not in full-history position", since[0].MessageID)
			}
		})
	}
}

func TestHistoryCapReturnsNewest(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st.AppendMessage(ctx, testMessage("m1", "alice", "", "2026-08-01T10:00:00Z"))
			st.AppendMessage(ctx, testMessage("m2", "alice", "", "2026-08-01T11:00:00Z"))
			st.AppendMessage(ctx, testMessage("m3", "alice", "", "2026-08-01T12:00:00Z"))

			capped, err := st.History(ctx, HistoryQuery{Limit: 2})
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(capped) != 2 {
				t.Fatalf("capped history = %d records, want 2", len(capped))
			}
			// Newest two, still ascending.
			if capped[0].MessageID != "m2" || capped[1].MessageID != "m3" {
				t.Errorf("capped history = [%s %s], want [m2 m3]",
					capped[0].MessageID, capped[1].MessageID)
			}
		})
	}
}

func TestHistoryRecipientFilter(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st.AppendMessage(ctx, testMessage("m1", "alice", "bob", "2026-08-01T10:00:00Z"))
			st.AppendMessage(ctx, testMessage("m2", "alice", "carol", "2026-08-01T11:00:00Z"))
			st.AppendMessage(ctx, testMessage("m3", "alice", "", "2026-08-01T12:00:00Z"))

			history, err := st.History(ctx, HistoryQuery{Recipient: "bob", Limit: 10})
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			// Direct-to-bob plus the broadcast; carol's message excluded.
			if len(history) != 2 {
				t.Fatalf("filtered history = %d records, want 2", len(history))
			}
			if history[0].MessageID != "m1" || history[1].MessageID != "m3" {
				t.Errorf("filtered history = [%s %s], want [m1 m3]",
					history[0].MessageID, history[1].MessageID)
			}
		})
	}
}

func TestFileMetadataRoundTrip(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			meta := &models.FileMetadata{
				FileID:          "f1",
				FileName:        "report.pdf",
				FileSize:        2048,
				MimeType:        "application/pdf",
				Sender:          "alice",
				Recipient:       "bob",
				StorageLocation: "/data/files/f1",
				CreatedAt:       time.Now().UTC().Truncate(time.Second),
			}
			if err := st.CreateFile(ctx, meta); err != nil {
				t.Fatalf("CreateFile() error = %v", err)
			}

			got, err := st.GetFile(ctx, "f1")
			if err != nil {
				t.Fatalf("GetFile() error = %v", err)
			}
			if got == nil {
				t.Fatal("GetFile() = nil for stored file")
			}
			if got.FileName != meta.FileName || got.FileSize != meta.FileSize ||
				got.MimeType != meta.MimeType || got.Recipient != meta.Recipient {
				t.Errorf("GetFile() = %+v, want %+v", got, meta)
			}

			missing, err := st.GetFile(ctx, "nope")
			if err != nil {
				t.Fatalf("GetFile(missing) error = %v", err)
			}
			if missing != nil {
				t.Errorf("GetFile(missing) = %+v, want nil", missing)
			}
		})
	}
}
