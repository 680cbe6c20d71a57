package scheduler

import (
	"sync"

	"cadence/internal/store"
)

// entryLocks serializes triggers per (user, content type) pair so that a
// manual run and a sweep cannot generate for the same pair concurrently.
// Locks are created on demand and never released back; the pair space is
// small (users x content types).
type entryLocks struct {
	mu    sync.Mutex
	locks map[lockKey]*sync.Mutex
}

type lockKey struct {
	userID      string
	contentType store.ContentType
}

func newEntryLocks() *entryLocks {
	return &entryLocks{locks: make(map[lockKey]*sync.Mutex)}
}

func (l *entryLocks) lock(userID string, contentType store.ContentType) func() {
	key := lockKey{userID: userID, contentType: contentType}
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &sync.Mutex{}
		l.locks[key] = entry
	}
	l.mu.Unlock()

	entry.Lock()
	return entry.Unlock
}
