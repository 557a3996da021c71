package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub keeps one queue per session. Queues are created on the first push and
// dropped again once they run empty.
type Hub struct {
	mu     sync.Mutex
	ttl    time.Duration
	queues map[string]*Queue
	logger *zap.Logger
}

func NewHub(ttl time.Duration, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		ttl:    ttl,
		queues: make(map[string]*Queue),
		logger: logger,
	}
}

// queueLocked expects h.mu to be held.
func (h *Hub) queueLocked(sessionId string) *Queue {
	q, ok := h.queues[sessionId]
	if !ok {
		q = NewQueue(h.ttl)
		q.OnChange(func(items []Notification) {
			if len(items) == 0 {
				h.dropIfEmpty(sessionId, q)
			}
		})
		h.queues[sessionId] = q
	}
	return q
}

func (h *Hub) dropIfEmpty(sessionId string, q *Queue) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.queues[sessionId] == q && q.Len() == 0 {
		delete(h.queues, sessionId)
	}
}

func (h *Hub) Push(sessionId, message string, kind Kind) string {
	h.mu.Lock()
	id := h.queueLocked(sessionId).Push(message, kind)
	h.mu.Unlock()
	h.logger.Debug("notification", zap.String("session", sessionId), zap.String("kind", string(kind)), zap.String("message", message))
	return id
}

func (h *Hub) List(sessionId string) []Notification {
	h.mu.Lock()
	q, ok := h.queues[sessionId]
	h.mu.Unlock()
	if !ok {
		return []Notification{}
	}
	return q.List()
}

func (h *Hub) Dismiss(sessionId, id string) bool {
	h.mu.Lock()
	q, ok := h.queues[sessionId]
	h.mu.Unlock()
	return ok && q.Dismiss(id)
}

func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queues)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, q := range h.queues {
		q.Close()
		delete(h.queues, id)
	}
}
