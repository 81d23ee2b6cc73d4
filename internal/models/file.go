package models

import "time"

// FileMetadata describes an uploaded file. The bytes themselves live in the
// blob store under StorageLocation.
type FileMetadata struct {
	FileID          string    `json:"file_id"`
	FileName        string    `json:"file_name"`
	FileSize        int64     `json:"file_size"`
	MimeType        string    `json:"mime_type"`
	Sender          string    `json:"sender"`
	Recipient       string    `json:"recipient,omitempty"`
	StorageLocation string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}
