package models

// Message types stored in the log and carried on the wire.
const (
	TypeMessage      = "MESSAGE"
	TypeFileTransfer = "FILE_TRANSFER"
)

// Message represents a relayed message. Recipient is empty for broadcasts.
// For FILE_TRANSFER messages File carries the metadata that goes on the wire;
// it is not part of the logged record (the files table is the durable copy).
type Message struct {
	MessageID string        `json:"message_id"`
	Sender    string        `json:"sender"`
	Recipient string        `json:"recipient,omitempty"`
	Content   string        `json:"content"`
	Timestamp string        `json:"timestamp"` // RFC3339 UTC
	Type      string        `json:"message_type"`
	File      *FileMetadata `json:"-"`
}

// IsBroadcast reports whether the message is addressed to all agents.
func (m *Message) IsBroadcast() bool {
	return m.Recipient == ""
}
