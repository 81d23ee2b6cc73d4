package relay

import (
	"sync"
	"time"

	"github.com/zaphodtime-a11y/multi-agent-relay/internal/metrics"
)

// Agent is a live registration: one connected agent process.
type Agent struct {
	ID           string
	Conn         Conn
	Capabilities map[string]string
	ConnectedAt  time.Time
}

// Registry maps agent ids to their active connections. At most one live
// entry exists per id; a re-registration under the same id supersedes the
// old one (last-registered-wins).
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]*Agent)}
}

// Register installs the agent and returns the superseded registration, if
// any. The caller is responsible for closing the superseded connection.
func (r *Registry) Register(agent *Agent) *Agent {
	r.mu.Lock()
	prev := r.agents[agent.ID]
	r.agents[agent.ID] = agent
	count := len(r.agents)
	r.mu.Unlock()

	metrics.ConnectedAgents.Set(float64(count))
	return prev
}

// Unregister removes the mapping only if it still points at conn. This
// guards a new session's registration against a late teardown of the old
// one.
func (r *Registry) Unregister(id string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[id]
	if !ok || agent.Conn != conn {
		return false
	}
	delete(r.agents, id)
	metrics.ConnectedAgents.Set(float64(len(r.agents)))
	return true
}

// Get returns the live registration for id, or nil.
func (r *Registry) Get(id string) *Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agents[id]
}

// Count returns the number of live registrations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Snapshot returns the live registrations at this instant.
func (r *Registry) Snapshot() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]*Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		agents = append(agents, agent)
	}
	return agents
}
