package protocol

import (
	"encoding/json"
	"time"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
)

// Version is the relay protocol version advertised in every envelope.
const Version = "0.3"

// Envelope type tags.
const (
	TypeHello           = "HELLO"
	TypeWelcome         = "WELCOME"
	TypeMessage         = "MESSAGE"
	TypeAck             = "ACK"
	TypeRequestHistory  = "REQUEST_HISTORY"
	TypeHistoryRequest  = "HISTORY_REQUEST" // accepted alias for REQUEST_HISTORY
	TypeHistoryResponse = "HISTORY_RESPONSE"
	TypePing            = "PING"
	TypePong            = "PONG"
	TypeGoodbye         = "GOODBYE"
	TypeError           = "ERROR"
	TypeFileTransfer    = "FILE_TRANSFER"
)

// Error codes sent to peers.
const (
	CodeInvalidHandshake = "INVALID_HANDSHAKE"
	CodeInvalidJSON      = "INVALID_JSON"
)

// Envelope is the single wire frame for the realtime channel. Fields are a
// union across all message types; which ones are meaningful depends on Type.
type Envelope struct {
	ProtocolVersion string `json:"protocol_version,omitempty"`
	Type            string `json:"message_type"`
	Timestamp       string `json:"timestamp,omitempty"`

	// HELLO
	AgentID      string            `json:"agent_id,omitempty"`
	Capabilities map[string]string `json:"capabilities,omitempty"`

	// WELCOME
	SessionID          string          `json:"session_id,omitempty"`
	ServerCapabilities map[string]bool `json:"server_capabilities,omitempty"`
	HeartbeatInterval  int             `json:"heartbeat_interval,omitempty"`
	ConnectedAgents    int             `json:"connected_agents,omitempty"`

	// MESSAGE / ACK
	MessageID string `json:"message_id,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Content   string `json:"content,omitempty"`

	// REQUEST_HISTORY / HISTORY_RESPONSE
	SinceTimestamp string           `json:"since_timestamp,omitempty"`
	Since          string           `json:"since,omitempty"` // accepted alias for since_timestamp
	Messages       []models.Message `json:"messages,omitempty"`

	// ERROR
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Recoverable  *bool  `json:"recoverable,omitempty"`

	// FILE_TRANSFER
	FileID   string `json:"file_id,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Decode parses a raw frame into an envelope.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// HelloAgentID returns the agent identity from a HELLO envelope. Older
// clients put it in the sender field.
func (e *Envelope) HelloAgentID() string {
	if e.AgentID != "" {
		return e.AgentID
	}
	return e.Sender
}

// HistoryCursor returns the history cursor, honoring both field spellings.
func (e *Envelope) HistoryCursor() string {
	if e.SinceTimestamp != "" {
		return e.SinceTimestamp
	}
	return e.Since
}

// IsHistoryRequest reports whether the envelope asks for history, under
// either type tag.
func (e *Envelope) IsHistoryRequest() bool {
	return e.Type == TypeRequestHistory || e.Type == TypeHistoryRequest
}

// Now returns the current time formatted the way every envelope carries it.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func base(msgType string) Envelope {
	return Envelope{
		ProtocolVersion: Version,
		Type:            msgType,
		Timestamp:       Now(),
	}
}

// NewWelcome builds the WELCOME reply to a successful handshake.
func NewWelcome(sessionID string, connectedAgents int) *Envelope {
	env := base(TypeWelcome)
	env.SessionID = sessionID
	env.ServerCapabilities = map[string]bool{
		"relay":         true,
		"persistence":   true,
		"history":       true,
		"message_queue": true,
		"file_transfer": true,
	}
	env.HeartbeatInterval = 30
	env.ConnectedAgents = connectedAgents
	return &env
}

// NewAck acknowledges receipt of a message by id.
func NewAck(messageID string) *Envelope {
	env := base(TypeAck)
	env.MessageID = messageID
	return &env
}

// NewPong answers a PING.
func NewPong() *Envelope {
	env := base(TypePong)
	return &env
}

// NewHistoryResponse wraps a history query result.
func NewHistoryResponse(messages []models.Message) *Envelope {
	env := base(TypeHistoryResponse)
	env.Messages = messages
	return &env
}

// NewError builds an ERROR envelope. Non-recoverable errors precede a close.
func NewError(code, message string, recoverable bool) *Envelope {
	env := base(TypeError)
	env.ErrorCode = code
	env.ErrorMessage = message
	env.Recoverable = &recoverable
	return &env
}

// NewMessage wraps a relayed message for delivery to a peer. FILE_TRANSFER
// messages additionally carry their file metadata fields.
func NewMessage(m *models.Message) *Envelope {
	env := Envelope{
		ProtocolVersion: Version,
		Type:            m.Type,
		Timestamp:       m.Timestamp,
		MessageID:       m.MessageID,
		Sender:          m.Sender,
		Recipient:       m.Recipient,
		Content:         m.Content,
	}
	if m.Type == models.TypeFileTransfer && m.File != nil {
		env.FileID = m.File.FileID
		env.FileName = m.File.FileName
		env.FileSize = m.File.FileSize
		env.MimeType = m.File.MimeType
	}
	return &env
}
