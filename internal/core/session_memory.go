package core

import (
	"context"
	"sync"
	"time"
)

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = 30 * time.Minute

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory. Entries expire after
// the TTL and are swept by a background goroutine until Close is called.
type MemorySessionStore struct {
	ttl time.Duration

	mu       sync.RWMutex
	sessions map[string]memoryEntry

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemorySessionStore creates an in-memory store and starts its sweeper.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	st := &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
		stop:     make(chan struct{}),
	}
	go st.sweep(sweepInterval(ttl))
	return st
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return interval
}

// Save stores a copy of s and refreshes its expiry.
func (m *MemorySessionStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = memoryEntry{session: *s, expiresAt: time.Now().Add(m.ttl)}
	n := len(m.sessions)
	m.mu.Unlock()

	activeSessions.Set(float64(n))
	return nil
}

// Get returns a copy of the stored session.
func (m *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, ErrSessionNotFound
	}
	s := e.session
	return &s, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	activeSessions.Set(float64(n))
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the sweeper.
func (m *MemorySessionStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *MemorySessionStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for id, e := range m.sessions {
				if now.After(e.expiresAt) {
					delete(m.sessions, id)
				}
			}
			n := len(m.sessions)
			m.mu.Unlock()
			activeSessions.Set(float64(n))
		}
	}
}
