package prediction

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionStore keeps the most recent prediction of every browser session.
// Each new prediction overwrites the previous one.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[uuid.UUID]*session
}

type session struct {
	last    *Result
	touched time.Time
}

// NewSessionStore creates a store whose idle sessions expire after ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*session),
	}
}

// Last returns the session's most recent result.
func (s *SessionStore) Last(id uuid.UUID) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.last == nil || s.expired(sess) {
		return Result{}, false
	}
	sess.touched = s.now()
	return *sess.last, true
}

// SetLast replaces the session's most recent result.
func (s *SessionStore) SetLast(id uuid.UUID, res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = &session{last: &res, touched: s.now()}
}

func (s *SessionStore) expired(sess *session) bool {
	return s.ttl > 0 && s.now().Sub(sess.touched) > s.ttl
}

// Cleanup drops expired sessions and returns how many were removed.
func (s *SessionStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CleanupLoop purges expired sessions every interval until ctx is done.
func (s *SessionStore) CleanupLoop(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 {
				logger.Debug("expired sessions removed", zap.Int("count", n))
			}
		}
	}
}
