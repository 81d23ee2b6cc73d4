package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/blob"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/metrics"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/protocol"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/store"
)

var (
	// ErrInvalidInput marks a client mistake: missing file name, bytes or
	// sender.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFileNotFound is returned when metadata or bytes are missing for a
	// requested file id.
	ErrFileNotFound = errors.New("file not found")
)

// FileBridge couples the out-of-band file transport to the realtime
// channel: uploaded bytes go to the blob store, metadata to the message
// store, and the recipient (if any) gets a FILE_TRANSFER message routed
// exactly like any other message.
type FileBridge struct {
	store  store.MessageStore
	blobs  blob.Store
	router *Router
	log    zerolog.Logger
}

// NewFileBridge creates a file bridge.
func NewFileBridge(st store.MessageStore, blobs blob.Store, router *Router, log zerolog.Logger) *FileBridge {
	return &FileBridge{store: st, blobs: blobs, router: router, log: log}
}

// Upload stores the file bytes and metadata under a fresh file id and, when
// a recipient is named, emits a FILE_TRANSFER notification through the
// router (live delivery if the recipient is online, offline queue if not).
func (b *FileBridge) Upload(ctx context.Context, fileName, mimeType, sender, recipient string, content io.Reader) (*models.FileMetadata, error) {
	if fileName == "" || sender == "" || content == nil {
		return nil, ErrInvalidInput
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	fileID := uuid.New().String()
	location, size, err := b.blobs.Put(fileID, content)
	if err != nil {
		return nil, fmt.Errorf("storing file bytes: %w", err)
	}

	meta := &models.FileMetadata{
		FileID:          fileID,
		FileName:        fileName,
		FileSize:        size,
		MimeType:        mimeType,
		Sender:          sender,
		Recipient:       recipient,
		StorageLocation: location,
		CreatedAt:       time.Now().UTC(),
	}
	if err := b.store.CreateFile(ctx, meta); err != nil {
		return nil, fmt.Errorf("storing file metadata: %w", err)
	}

	metrics.FilesUploaded.Inc()
	b.log.Info().Str("file_id", fileID).Str("file_name", fileName).
		Int64("file_size", size).Str("sender", sender).
		Msg("file uploaded")

	if recipient != "" {
		b.notify(ctx, meta)
	}
	return meta, nil
}

// notify logs and routes the FILE_TRANSFER message for an upload.
func (b *FileBridge) notify(ctx context.Context, meta *models.FileMetadata) {
	msg := &models.Message{
		MessageID: ulid.Make().String(),
		Sender:    meta.Sender,
		Recipient: meta.Recipient,
		Content:   fmt.Sprintf("%s sent file %s", meta.Sender, meta.FileName),
		Timestamp: protocol.Now(),
		Type:      models.TypeFileTransfer,
		File:      meta,
	}

	if _, err := b.store.AppendMessage(ctx, msg); err != nil {
		b.log.Error().Err(err).Str("file_id", meta.FileID).
			Msg("failed to log file transfer message")
	}
	b.router.Route(msg, meta.Sender)
}

// Download returns the metadata and a reader over the stored bytes.
// ErrFileNotFound covers both a missing metadata row and missing bytes.
func (b *FileBridge) Download(ctx context.Context, fileID string) (*models.FileMetadata, io.ReadCloser, error) {
	meta, err := b.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading file metadata: %w", err)
	}
	if meta == nil {
		return nil, nil, ErrFileNotFound
	}

	content, err := b.blobs.Get(fileID)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("loading file bytes: %w", err)
	}

	metrics.FilesDownloaded.Inc()
	return meta, content, nil
}
