package usecase

import (
	"sync"

	"github.com/google/uuid"
)

// sessionLocks serializes mutations per session while keeping independent
// sessions fully parallel. Finalize and chunk writes for the same session
// take the same lock, so finalize always sees a stable chunk-set snapshot.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{
		locks: make(map[uuid.UUID]*sessionLock),
	}
}

func (s *sessionLocks) Lock(sessionID uuid.UUID) {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
}

func (s *sessionLocks) Unlock(sessionID uuid.UUID) {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if ok {
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
	}
	s.mu.Unlock()

	if ok {
		l.mu.Unlock()
	}
}
