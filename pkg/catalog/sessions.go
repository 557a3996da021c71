package catalog

import (
	"sync"
	"time"
)

type sessionEntry struct {
	session  *Session
	lastUsed time.Time
}

// Sessions keeps one Session per visitor and category page.
type Sessions struct {
	mu       sync.Mutex
	pages    *Pages
	source   ProductProvider
	opts     SessionOptions
	pageSize int
	onChange func(sessionId string, view View)
	entries  map[string]*sessionEntry
}

func NewSessions(pages *Pages, source ProductProvider, pageSize int, opts SessionOptions) *Sessions {
	return &Sessions{
		pages:    pages,
		source:   source,
		opts:     opts,
		pageSize: pageSize,
		entries:  map[string]*sessionEntry{},
	}
}

// OnChange registers fn to receive the view of a visitor whose debounced query
// was applied. Sessions created before the call are not affected.
func (s *Sessions) OnChange(fn func(sessionId string, view View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Sessions) Get(sessionId, category string) (*Session, error) {
	cfg, err := s.pages.Get(category)
	if err != nil {
		return nil, err
	}
	key := sessionId + "/" + category
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		opts := s.opts
		if fn := s.onChange; fn != nil {
			next := opts.OnChange
			opts.OnChange = func(view View) {
				if next != nil {
					next(view)
				}
				fn(sessionId, view)
			}
		}
		entry = &sessionEntry{session: NewSession(s.source, cfg.WithDefaultPageSize(s.pageSize), opts)}
		s.entries[key] = entry
	}
	entry.lastUsed = time.Now()
	return entry.session, nil
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Prune closes and forgets sessions unused for longer than maxIdle.
func (s *Sessions) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if time.Since(entry.lastUsed) > maxIdle {
			entry.session.Close()
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
