package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/metrics"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/models"
	"github.com/zaphodtime-a11y/multi-agent-relay/internal/protocol"
)

type sessionState int

const (
	stateAwaitingHello sessionState = iota
	stateRegistered
	stateClosed
)

// Session drives one connection through its lifecycle: handshake,
// registered message loop, teardown.
type Session struct {
	relay   *Relay
	conn    Conn
	log     zerolog.Logger
	state   sessionState
	agentID string
}

func newSession(r *Relay, conn Conn) *Session {
	return &Session{
		relay: r,
		conn:  conn,
		log:   r.log,
		state: stateAwaitingHello,
	}
}

// Run executes the session until the connection ends. It always returns
// with the connection closed and, when this session still owns the
// registration, the agent removed from the registry.
func (s *Session) Run(ctx context.Context) {
	defer s.teardown()
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().Interface("panic", p).Str("agent_id", s.agentID).
				Msg("session fault")
		}
	}()

	if !s.handshake() {
		return
	}
	s.loop(ctx)
}

// handshake waits for the HELLO frame and registers the agent. Any other
// first frame is a protocol error that closes the connection.
func (s *Session) handshake() bool {
	if t := s.relay.handshakeTimeout; t > 0 {
		s.conn.SetReadDeadline(time.Now().Add(t))
	}

	raw, err := s.conn.Receive()
	if err != nil {
		s.log.Info().Err(err).Msg("connection ended before handshake")
		return false
	}
	s.conn.SetReadDeadline(time.Time{})

	env, err := protocol.Decode(raw)
	if err != nil || env.Type != protocol.TypeHello || env.HelloAgentID() == "" {
		metrics.HandshakeFailures.Inc()
		sendEnvelope(s.conn, protocol.NewError(
			protocol.CodeInvalidHandshake, "expected HELLO with agent_id", false))
		return false
	}

	s.agentID = env.HelloAgentID()
	agent := &Agent{
		ID:           s.agentID,
		Conn:         s.conn,
		Capabilities: env.Capabilities,
		ConnectedAt:  time.Now(),
	}

	// Last registration wins: close the superseded connection instead of
	// leaving it to discover its eviction on a failed send.
	if prev := s.relay.registry.Register(agent); prev != nil {
		s.log.Info().Str("agent_id", s.agentID).Msg("superseding previous registration")
		prev.Conn.Close()
	}
	s.state = stateRegistered
	s.log.Info().Str("agent_id", s.agentID).
		Int("connected_agents", s.relay.registry.Count()).
		Msg("agent registered")

	welcome := protocol.NewWelcome("session-"+s.agentID, s.relay.registry.Count())
	if err := sendEnvelope(s.conn, welcome); err != nil {
		s.log.Warn().Err(err).Str("agent_id", s.agentID).Msg("welcome send failed")
		return false
	}

	// Deliver the backlog before any new live traffic reaches this agent.
	delivered, drained := s.relay.queue.Flush(s.agentID, func(m *models.Message) error {
		return sendEnvelope(s.conn, protocol.NewMessage(m))
	})
	if delivered > 0 || !drained {
		s.log.Info().Str("agent_id", s.agentID).
			Int("delivered", delivered).Bool("drained", drained).
			Msg("flushed offline queue")
	}

	s.announceJoin()
	return true
}

// announceJoin broadcasts a synthetic MESSAGE telling the other agents who
// just connected.
func (s *Session) announceJoin() {
	count := s.relay.registry.Count()
	announcement := &models.Message{
		MessageID: fmt.Sprintf("announce-%s-%d", s.agentID, time.Now().UnixNano()),
		Sender:    "relay_server",
		Content:   fmt.Sprintf("%s joined! Total: %d", s.agentID, count),
		Timestamp: protocol.Now(),
		Type:      models.TypeMessage,
	}
	s.relay.router.Route(announcement, s.agentID)
}

// loop processes frames until GOODBYE, transport close, or context
// cancellation.
func (s *Session) loop(ctx context.Context) {
	for {
		raw, err := s.conn.Receive()
		if err != nil {
			s.log.Info().Err(err).Str("agent_id", s.agentID).Msg("connection closed")
			return
		}

		env, err := protocol.Decode(raw)
		if err != nil {
			sendEnvelope(s.conn, protocol.NewError(
				protocol.CodeInvalidJSON, err.Error(), true))
			continue
		}

		switch {
		case env.Type == protocol.TypeMessage:
			s.handleMessage(ctx, env)
		case env.IsHistoryRequest():
			s.handleHistory(ctx, env)
		case env.Type == protocol.TypePing:
			sendEnvelope(s.conn, protocol.NewPong())
		case env.Type == protocol.TypeGoodbye:
			s.log.Info().Str("agent_id", s.agentID).Msg("agent said goodbye")
			return
		default:
			s.log.Debug().Str("agent_id", s.agentID).
				Str("message_type", env.Type).Msg("ignoring unrecognized envelope")
		}
	}
}

// handleMessage persists, acknowledges and routes a deliverable message.
// Persistence is best-effort from the sender's point of view: store errors
// and duplicate ids are logged, and the ACK goes out regardless.
func (s *Session) handleMessage(ctx context.Context, env *protocol.Envelope) {
	msg := &models.Message{
		MessageID: env.MessageID,
		Sender:    env.Sender,
		Recipient: env.Recipient,
		Content:   env.Content,
		Timestamp: env.Timestamp,
		Type:      models.TypeMessage,
	}
	if msg.MessageID == "" {
		msg.MessageID = ulid.Make().String()
	}
	if msg.Sender == "" {
		msg.Sender = s.agentID
	}
	if msg.Timestamp == "" {
		msg.Timestamp = protocol.Now()
	}

	inserted, err := s.relay.store.AppendMessage(ctx, msg)
	if err != nil {
		s.log.Error().Err(err).Str("message_id", msg.MessageID).
			Msg("failed to store message")
	} else if !inserted {
		s.log.Debug().Str("message_id", msg.MessageID).
			Msg("duplicate message id, not stored")
	}

	if err := sendEnvelope(s.conn, protocol.NewAck(msg.MessageID)); err != nil {
		s.log.Warn().Err(err).Str("agent_id", s.agentID).Msg("ack send failed")
	}

	s.relay.router.Route(msg, s.agentID)
}

// handleHistory answers a history request. A store failure yields an empty
// result, not an error to the peer.
func (s *Session) handleHistory(ctx context.Context, env *protocol.Envelope) {
	messages, err := s.relay.History(ctx, env.HistoryCursor(), "")
	if err != nil {
		s.log.Error().Err(err).Str("agent_id", s.agentID).
			Msg("history query failed")
		messages = nil
	}
	if err := sendEnvelope(s.conn, protocol.NewHistoryResponse(messages)); err != nil {
		s.log.Warn().Err(err).Str("agent_id", s.agentID).Msg("history send failed")
	}
}

// teardown removes the registration if this session still owns it and
// closes the connection. Close errors are swallowed.
func (s *Session) teardown() {
	if s.state == stateRegistered {
		if s.relay.registry.Unregister(s.agentID, s.conn) {
			s.log.Info().Str("agent_id", s.agentID).
				Int("remaining", s.relay.registry.Count()).
				Msg("agent removed")
		}
	}
	s.state = stateClosed
	s.conn.Close()
}
