package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/presence"
)

// Hub owns the set of live sessions. All mutation happens under the
// mutex; delivery into a session is a non-blocking enqueue, so a slow
// or closing session drops the event instead of stalling the caller.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	registry *presence.Registry
	log      *slog.Logger
}

func NewHub(registry *presence.Registry, log *slog.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		registry: registry,
		log:      log,
	}
}

// Attach adds a session to the live set.
func (h *Hub) Attach(s *Session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	count := len(h.sessions)
	h.mu.Unlock()

	h.log.Info("session attached", "conn_id", s.id, "live_sessions", count)
}

// Detach removes a session from the live set and signals its write
// pump. A detached session can no longer be enqueued to: removal
// happens under the write lock, deliveries under the read lock.
func (h *Hub) Detach(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.id]
	delete(h.sessions, s.id)
	count := len(h.sessions)
	h.mu.Unlock()

	s.shutdown()
	if ok {
		h.log.Info("session detached", "conn_id", s.id, "live_sessions", count)
	}
}

// Broadcast delivers an event to every live session and returns how
// many accepted it.
func (h *Hub) Broadcast(ev model.Event) int {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("failed to marshal event", "type", ev.Type, "err", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, s := range h.sessions {
		if s.enqueue(data) {
			delivered++
		}
	}
	return delivered
}

// DeliverTo hands an event to the first live session whose claimed
// label matches. When several connections claim the label, which one
// receives is arbitrary (map iteration order). Returns false when no
// live session matched or the matched session could not accept.
func (h *Hub) DeliverTo(label string, ev model.Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("failed to marshal event", "type", ev.Type, "err", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.sessions {
		if claimed, ok := h.registry.Label(s.id); ok && claimed == label {
			return s.enqueue(data)
		}
	}
	return false
}

// Send delivers an event to one specific session.
func (h *Hub) Send(s *Session, ev model.Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("failed to marshal event", "type", ev.Type, "err", err)
		return false
	}
	return s.enqueue(data)
}

// Len reports the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
