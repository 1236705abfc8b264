package webchat

import (
	"context"
	"sync"
	"time"

	"github.com/assistaura/leadchat/internal/conversation"
	"github.com/assistaura/leadchat/internal/observability/metrics"
	"github.com/assistaura/leadchat/pkg/logging"
)

const (
	defaultIdleTTL = 30 * time.Minute
	maxSessionID   = 128
)

// OrchestratorFactory wires a fresh session to its gateways.
type OrchestratorFactory func(session *conversation.Session) *conversation.Orchestrator

// Registry holds the live sessions of this process. Sessions are created on
// demand and evicted once idle for longer than the TTL.
type Registry struct {
	factory OrchestratorFactory
	idleTTL time.Duration
	logger  *logging.Logger
	metrics *metrics.ConversationMetrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*conversation.Orchestrator
}

func NewRegistry(factory OrchestratorFactory, idleTTL time.Duration, logger *logging.Logger, m *metrics.ConversationMetrics) *Registry {
	if factory == nil {
		panic("webchat: orchestrator factory required")
	}
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		factory:  factory,
		idleTTL:  idleTTL,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
		sessions: make(map[string]*conversation.Orchestrator),
	}
}

// Create starts a new session with a generated id.
func (r *Registry) Create() *conversation.Orchestrator {
	orch, _ := r.GetOrCreate("")
	return orch
}

// Get returns the live session for id.
func (r *Registry) Get(id string) (*conversation.Orchestrator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orch, ok := r.sessions[id]
	return orch, ok
}

// GetOrCreate returns the session for id, creating it when unknown. Empty or
// oversized ids get a generated one.
func (r *Registry) GetOrCreate(id string) (*conversation.Orchestrator, bool) {
	if len(id) > maxSessionID {
		id = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id != "" {
		if orch, ok := r.sessions[id]; ok {
			return orch, false
		}
	}
	orch := r.factory(conversation.NewSession(id))
	r.sessions[orch.Session().ID] = orch
	r.metrics.SetActiveSessions(len(r.sessions))
	r.logger.Debug("webchat: session created", "session_id", orch.Session().ID)
	return orch, true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts idle sessions and returns how many were removed. A busy
// session is kept; its in-flight call still owns the orchestrator. Session
// state is read without holding the registry lock.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	live := make(map[string]*conversation.Orchestrator, len(r.sessions))
	for id, orch := range r.sessions {
		live[id] = orch
	}
	r.mu.Unlock()

	var idle []string
	for id, orch := range live {
		if orch.IsBusy() || orch.Session().LastActive().After(cutoff) {
			continue
		}
		idle = append(idle, id)
	}
	if len(idle) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for _, id := range idle {
		// skip ids recreated since the snapshot
		if r.sessions[id] != live[id] {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	if evicted > 0 {
		r.metrics.SetActiveSessions(len(r.sessions))
		r.logger.Info("webchat: evicted idle sessions", "count", evicted, "remaining", len(r.sessions))
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.idleTTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
