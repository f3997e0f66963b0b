package orchestrator

import (
	"sync"

	statex "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/state"
)

// keyLock serializes work per conversation key. Entries are dropped once no
// caller holds or waits on them.
type keyLock struct {
	mu    sync.Mutex
	locks map[statex.Key]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[statex.Key]*keyLockEntry)}
}

func (l *keyLock) Lock(key statex.Key) func() {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &keyLockEntry{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *keyLock) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
