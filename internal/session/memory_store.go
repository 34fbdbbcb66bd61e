package session

import (
	"sync"
	"time"
)

// DefaultCleanupInterval is how often idle sessions are swept.
const DefaultCleanupInterval = 30 * time.Second

type entry[S Session] struct {
	session  S
	lastSeen time.Time
}

// MemoryStore keeps sessions in memory and drops those idle for longer than ttl.
type MemoryStore[S Session] struct {
	mu       sync.RWMutex
	sessions map[string]*entry[S]
	ttl      time.Duration
	now      func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewMemoryStore[S Session](ttl, cleanupInterval time.Duration) *MemoryStore[S] {
	s := newMemoryStore[S](ttl, time.Now)
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	s.wg.Add(1)
	go s.cleanupLoop(cleanupInterval)

	return s
}

func newMemoryStore[S Session](ttl time.Duration, now func() time.Time) *MemoryStore[S] {
	return &MemoryStore[S]{
		sessions:    make(map[string]*entry[S]),
		ttl:         ttl,
		now:         now,
		stopCleanup: make(chan struct{}),
	}
}

func (s *MemoryStore[S]) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions()
		case <-s.stopCleanup:
			return
		}
	}
}

// expireSessions removes idle sessions and closes them outside the lock.
func (s *MemoryStore[S]) expireSessions() int {
	cutoff := s.now().Add(-s.ttl)

	var expired []S
	s.mu.Lock()
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	return len(expired)
}

func (s *MemoryStore[S]) Put(id string, sess S) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &entry[S]{session: sess, lastSeen: s.now()}
}

// Get returns the session and marks it as recently used.
func (s *MemoryStore[S]) Get(id string) (S, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || e.lastSeen.Before(s.now().Add(-s.ttl)) {
		var zero S
		return zero, ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return e.session, nil
}

// Delete removes and closes the session.
func (s *MemoryStore[S]) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	e.session.Close()
	return nil
}

func (s *MemoryStore[S]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the cleanup loop and closes every remaining session.
func (s *MemoryStore[S]) Close() error {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
	s.wg.Wait()

	s.mu.Lock()
	remaining := s.sessions
	s.sessions = make(map[string]*entry[S])
	s.mu.Unlock()

	for _, e := range remaining {
		e.session.Close()
	}
	return nil
}
