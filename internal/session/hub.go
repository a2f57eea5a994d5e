package session

import (
	"sync"

	"github.com/Saplyn/vibe/internal/metrics"
	"github.com/Saplyn/vibe/internal/protocol"
	"github.com/Saplyn/vibe/pkg/logger"
)

// Hub tracks the connected editor sessions and fans client commands out to
// all of them. The fan-out is lossy: a session whose buffer is full misses
// the frame instead of stalling the engine.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
	}
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	metrics.SessionsActive.Set(float64(h.Count()))
	logger.Info("Session registered",
		logger.String("session_id", s.ID),
		logger.Int("total_sessions", h.Count()),
	)
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID)
	h.mu.Unlock()

	metrics.SessionsActive.Set(float64(h.Count()))
	logger.Info("Session unregistered",
		logger.String("session_id", s.ID),
		logger.Int("total_sessions", h.Count()),
	)
}

// Count returns the number of connected sessions
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast sends a client command to every connected session
func (h *Hub) Broadcast(cmd protocol.ClientCommand) {
	data, err := cmd.Encode()
	if err != nil {
		logger.Error("Failed to encode broadcast", logger.ErrorField(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		s.queue(data)
	}
}
