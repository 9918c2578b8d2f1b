package http

import (
	"context"
	"sync"
	"time"
)

type sessionKey struct {
	userID    string
	advanceID string
}

type sessionEntry[T any] struct {
	value    T
	lastUsed time.Time
}

// SessionStore keeps one session per user per advance and forgets
// sessions that sat idle longer than the TTL
type SessionStore[T any] struct {
	mu      sync.Mutex
	entries map[sessionKey]*sessionEntry[T]
	idleTTL time.Duration
	now     func() time.Time
}

// NewSessionStore creates an empty store
func NewSessionStore[T any](idleTTL time.Duration) *SessionStore[T] {
	return &SessionStore[T]{
		entries: make(map[sessionKey]*sessionEntry[T]),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Get returns the session and marks it used
func (s *SessionStore[T]) Get(userID, advanceID string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	key := sessionKey{userID, advanceID}
	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	now := s.now()
	if now.Sub(e.lastUsed) > s.idleTTL {
		delete(s.entries, key)
		return zero, false
	}
	e.lastUsed = now
	return e.value, true
}

// Put stores a session, replacing any previous one for the same key
func (s *SessionStore[T]) Put(userID, advanceID string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionKey{userID, advanceID}] = &sessionEntry[T]{value: value, lastUsed: s.now()}
}

// Delete forgets a session
func (s *SessionStore[T]) Delete(userID, advanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionKey{userID, advanceID})
}

// Any reports whether one of the live sessions of userID satisfies match.
// Idle sessions are skipped and do not get their use time refreshed.
func (s *SessionStore[T]) Any(userID string, match func(T) bool) bool {
	s.mu.Lock()
	var values []T
	now := s.now()
	for key, e := range s.entries {
		if key.userID == userID && now.Sub(e.lastUsed) <= s.idleTTL {
			values = append(values, e.value)
		}
	}
	s.mu.Unlock()

	for _, v := range values {
		if match(v) {
			return true
		}
	}
	return false
}

// Len returns the number of stored sessions
func (s *SessionStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops idle sessions and returns how many were dropped
func (s *SessionStore[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0
	for key, e := range s.entries {
		if now.Sub(e.lastUsed) > s.idleTTL {
			delete(s.entries, key)
			dropped++
		}
	}
	return dropped
}

// Sweeper is anything RunSweeper can clean
type Sweeper interface {
	Sweep() int
}

// RunSweeper sweeps every interval until ctx is done
func RunSweeper(ctx context.Context, interval time.Duration, logger Logger, stores ...Sweeper) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := 0
			for _, st := range stores {
				dropped += st.Sweep()
			}
			if dropped > 0 {
				logger.Infow("Idle sessions dropped", "count", dropped)
			}
		}
	}
}
