package relay

import (
	"sync"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/metrics"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
)

// OfflineQueue buffers undeliverable messages per agent until the agent
// reconnects. It is volatile: contents do not survive a restart.
type OfflineQueue struct {
	mu     sync.Mutex
	limit  int
	queues map[string][]*models.Message
}

// NewOfflineQueue creates an offline queue bounded at limit entries per
// agent. When a queue is full the oldest entry is dropped to make room.
// A limit of 0 means unbounded.
func NewOfflineQueue(limit int) *OfflineQueue {
	return &OfflineQueue{
		limit:  limit,
		queues: make(map[string][]*models.Message),
	}
}

// Enqueue appends the message to the agent's backlog, preserving arrival
// order.
func (q *OfflineQueue) Enqueue(agentID string, msg *models.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queue := q.queues[agentID]
	if q.limit > 0 && len(queue) >= q.limit {
		queue = queue[1:]
		metrics.QueueDropped.Inc()
	}
	q.queues[agentID] = append(queue, msg)
	metrics.QueuedMessages.Inc()
}

// Len returns the agent's current backlog size.
func (q *OfflineQueue) Len(agentID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[agentID])
}

// Flush delivers the agent's backlog in original order through send,
// stopping at the first failure. The failed entry and everything after it
// stay queued for a future flush; messages enqueued while the flush was in
// progress are kept after them. Returns the number delivered and whether
// the backlog fully drained.
func (q *OfflineQueue) Flush(agentID string, send func(*models.Message) error) (int, bool) {
	q.mu.Lock()
	pending := q.queues[agentID]
	delete(q.queues, agentID)
	q.mu.Unlock()

	if len(pending) == 0 {
		return 0, true
	}

	delivered := 0
	for _, msg := range pending {
		if err := send(msg); err != nil {
			break
		}
		delivered++
	}
	metrics.QueueFlushed.Add(float64(delivered))

	if delivered == len(pending) {
		return delivered, true
	}

	// Put the remainder back ahead of anything that arrived mid-flush, so
	// the queue stays in arrival order.
	remainder := pending[delivered:]
	q.mu.Lock()
	q.queues[agentID] = append(remainder, q.queues[agentID]...)
	q.mu.Unlock()
	return delivered, false
}
