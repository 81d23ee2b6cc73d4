package relay

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/protocol"
)

var errSendFailed = errors.New("send failed")

// fakeConn is an in-process Conn for tests. Inbound frames are scripted
// through a channel; outbound frames are recorded.
type fakeConn struct {
	inbound chan []byte

	mu       sync.Mutex
	sent     [][]byte
	failNext bool
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16)}
}

func (c *fakeConn) Receive() ([]byte, error) {
	data, ok := <-c.inbound
	if !ok {
		return nil, io.EOF
	}
	return data, nil
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext || c.closed {
		return errSendFailed
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.sent = append(c.sent, buf)
	return nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.inbound)
	}
	return nil
}

func (c *fakeConn) failSends(fail bool) {
	c.mu.Lock()
	c.failNext = fail
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// push scripts one inbound frame.
func (c *fakeConn) push(t *testing.T, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	c.inbound <- data
}

// pushRaw scripts one inbound frame without marshaling.
func (c *fakeConn) pushRaw(data []byte) {
	c.inbound <- data
}

// envelopes decodes everything sent so far.
func (c *fakeConn) envelopes(t *testing.T) []protocol.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]protocol.Envelope, len(c.sent))
	for i, data := range c.sent {
		if err := json.Unmarshal(data, &out[i]); err != nil {
			t.Fatalf("decode sent frame %d: %v", i, err)
		}
	}
	return out
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
