package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const DefaultTTL = 3000 * time.Millisecond

type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindError   Kind = "error"
)

var notificationsPushed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_notifications_total",
	Help: "The total number of pushed notifications",
}, []string{"kind"})

type Notification struct {
	Id        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// Queue is an arrival ordered list of notifications that each expire on their own timer.
type Queue struct {
	mu       sync.Mutex
	ttl      time.Duration
	items    []Notification
	timers   map[string]*time.Timer
	onChange func([]Notification)
	closed   bool
}

func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// OnChange registers a callback receiving a snapshot after every push, expiry or dismissal.
// It is called without the queue lock held.
func (q *Queue) OnChange(fn func([]Notification)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = fn
}

// Push adds a notification and returns its id. Unknown kinds are stored as info.
func (q *Queue) Push(message string, kind Kind) string {
	switch kind {
	case KindSuccess, KindInfo, KindError:
	default:
		kind = KindInfo
	}
	n := Notification{
		Id:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ""
	}
	q.items = append(q.items, n)
	q.timers[n.Id] = time.AfterFunc(q.ttl, func() {
		q.remove(n.Id)
	})
	snapshot, fn := q.snapshotLocked()
	q.mu.Unlock()

	notificationsPushed.WithLabelValues(string(kind)).Inc()
	notifyChange(fn, snapshot)
	return n.Id
}

// Dismiss removes the notification before it expires.
func (q *Queue) Dismiss(id string) bool {
	return q.remove(id)
}

func (q *Queue) remove(id string) bool {
	q.mu.Lock()
	idx := slices.IndexFunc(q.items, func(n Notification) bool { return n.Id == id })
	if idx < 0 {
		q.mu.Unlock()
		return false
	}
	q.items = slices.Delete(q.items, idx, idx+1)
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	snapshot, fn := q.snapshotLocked()
	q.mu.Unlock()

	notifyChange(fn, snapshot)
	return true
}

func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops every timer and drops the pending notifications.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.items = nil
	q.closed = true
}

func (q *Queue) snapshotLocked() ([]Notification, func([]Notification)) {
	if q.onChange == nil {
		return nil, nil
	}
	return slices.Clone(q.items), q.onChange
}

func notifyChange(fn func([]Notification), snapshot []Notification) {
	if fn != nil {
		fn(snapshot)
	}
}
