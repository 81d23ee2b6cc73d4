package relay

import (
	"github.com/rs/zerolog"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/metrics"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/protocol"
)

// Router decides where a message goes: to every other live agent, to one
// live agent, or into the offline queue. Delivery is best-effort; "sent"
// means the transport write succeeded, not that the peer processed it.
type Router struct {
	registry *Registry
	queue    *OfflineQueue
	log      zerolog.Logger
}

// NewRouter creates a router over the given registry and queue.
func NewRouter(registry *Registry, queue *OfflineQueue, log zerolog.Logger) *Router {
	return &Router{registry: registry, queue: queue, log: log}
}

// Route delivers the message. Broadcasts (no recipient) go to every live
// agent except the sender; the returned slice lists agents the broadcast
// could not reach. Direct messages go to the recipient's connection when
// online, otherwise into the offline queue.
func (r *Router) Route(msg *models.Message, senderID string) []string {
	if msg.IsBroadcast() {
		return r.broadcast(msg, senderID)
	}
	r.direct(msg)
	return nil
}

// broadcast sends to all live agents except the sender. An agent whose send
// fails is treated as disconnected: it is dropped from the registry and the
// message is queued for its next reconnect.
func (r *Router) broadcast(msg *models.Message, senderID string) []string {
	env := protocol.NewMessage(msg)

	var failed []string
	for _, agent := range r.registry.Snapshot() {
		if agent.ID == senderID {
			continue
		}
		if err := sendEnvelope(agent.Conn, env); err != nil {
			r.log.Warn().Err(err).
				Str("agent_id", agent.ID).
				Str("message_id", msg.MessageID).
				Msg("broadcast delivery failed, queueing")
			r.registry.Unregister(agent.ID, agent.Conn)
			r.queue.Enqueue(agent.ID, msg)
			failed = append(failed, agent.ID)
			metrics.MessagesRouted.WithLabelValues("queued").Inc()
			continue
		}
		metrics.MessagesRouted.WithLabelValues("delivered").Inc()
	}
	return failed
}

// direct sends to the named recipient. A failed send queues the message but
// does not deregister the recipient; unlike the broadcast path, a single
// direct failure is not proof the connection is gone, and the agent's own
// session will tear the registration down if it is.
func (r *Router) direct(msg *models.Message) {
	agent := r.registry.Get(msg.Recipient)
	if agent == nil {
		r.queue.Enqueue(msg.Recipient, msg)
		metrics.MessagesRouted.WithLabelValues("queued").Inc()
		return
	}

	if err := sendEnvelope(agent.Conn, protocol.NewMessage(msg)); err != nil {
		r.log.Warn().Err(err).
			Str("agent_id", agent.ID).
			Str("message_id", msg.MessageID).
			Msg("direct delivery failed, queueing")
		r.queue.Enqueue(msg.Recipient, msg)
		metrics.MessagesRouted.WithLabelValues("queued").Inc()
		return
	}
	metrics.MessagesRouted.WithLabelValues("delivered").Inc()
}
