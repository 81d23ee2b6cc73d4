package relay

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/store"
)

// Options tunes the relay core.
type Options struct {
	// HistoryLimit caps the number of records returned by a history
	// request that carries no cursor.
	HistoryLimit int

	// QueueLimit bounds each agent's offline backlog; the oldest entry is
	// dropped on overflow. 0 means unbounded.
	QueueLimit int

	// HandshakeTimeout bounds the wait for the HELLO frame. 0 disables
	// the deadline.
	HandshakeTimeout time.Duration
}

// Relay is the core of the message relay: the agent registry, the offline
// queues, the router and the message log, with an explicit lifecycle. One
// Relay serves all connections of a process.
type Relay struct {
	store    store.MessageStore
	registry *Registry
	queue    *OfflineQueue
	router   *Router
	log      zerolog.Logger

	historyLimit     int
	handshakeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// New creates a relay core over the given message store.
func New(st store.MessageStore, log zerolog.Logger, opts Options) *Relay {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 100
	}
	registry := NewRegistry()
	queue := NewOfflineQueue(opts.QueueLimit)
	return &Relay{
		store:            st,
		registry:         registry,
		queue:            queue,
		router:           NewRouter(registry, queue, log),
		log:              log,
		historyLimit:     opts.HistoryLimit,
		handshakeTimeout: opts.HandshakeTimeout,
	}
}

// Registry exposes the live agent registry.
func (r *Relay) Registry() *Registry {
	return r.registry
}

// Router exposes the message router.
func (r *Relay) Router() *Router {
	return r.router
}

// HandleConnection runs a full session on the connection, blocking until
// the session ends. Intended to be called from the transport's per-
// connection goroutine.
func (r *Relay) HandleConnection(ctx context.Context, conn Conn) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		conn.Close()
		return
	}
	r.mu.Unlock()

	newSession(r, conn).Run(ctx)
}

// History queries the message log. An empty cursor returns the newest
// HistoryLimit records; otherwise all records strictly after the cursor.
func (r *Relay) History(ctx context.Context, since, recipient string) ([]models.Message, error) {
	return r.store.History(ctx, store.HistoryQuery{
		Since:     since,
		Recipient: recipient,
		Limit:     r.historyLimit,
	})
}

// Close shuts the relay down: no new sessions are accepted and every live
// connection is closed, which unblocks the session goroutines.
func (r *Relay) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	for _, agent := range r.registry.Snapshot() {
		agent.Conn.Close()
	}
}
