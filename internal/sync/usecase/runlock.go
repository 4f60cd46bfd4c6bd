package usecase

import "sync"

// userLocks rejects overlapping sync runs for the same user. The
// service runs as a single process, so an in-process registry is the
// authoritative view of running syncs.
type userLocks struct {
	mu      sync.Mutex
	running map[string]bool
}

func newUserLocks() *userLocks {
	return &userLocks{
		running: make(map[string]bool),
	}
}

// TryAcquire reports whether the caller obtained the user's slot.
// Callers that get true must Release when the run finishes.
func (l *userLocks) TryAcquire(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running[userID] {
		return false
	}
	l.running[userID] = true
	return true
}

func (l *userLocks) Release(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.running, userID)
}
