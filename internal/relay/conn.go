package relay

import (
	"encoding/json"
	"time"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/protocol"
)

// Conn is the transport handle a session speaks through. The websocket
// adapter in the handlers package implements it; tests use an in-process
// fake. Send must be safe for concurrent use: routers deliver to a
// connection from other sessions' goroutines.
type Conn interface {
	// Receive blocks until the next inbound frame arrives.
	Receive() ([]byte, error)

	// Send writes one frame. A failed or timed-out send reports an error;
	// the relay treats any send error as the peer being unreachable.
	Send(data []byte) error

	// SetReadDeadline bounds the next Receive. The zero time clears it.
	SetReadDeadline(t time.Time) error

	Close() error
}

// sendEnvelope marshals an envelope and writes it as one frame.
func sendEnvelope(conn Conn, env *protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return conn.Send(data)
}
