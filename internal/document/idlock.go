package document

import "sync"

// idLocks serializes composite operations per document id, bounding the
// damage of the non-transactional partition writes to stale reads rather
// than half-deleted documents.
type idLocks struct {
	mu    sync.Mutex
	locks map[string]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

func newIDLocks() *idLocks {
	return &idLocks{locks: map[string]*idLock{}}
}

// Lock acquires the lock for id and returns the matching unlock func.
// Entries are refcounted so the map does not grow with dead document ids.
func (l *idLocks) Lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &idLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
