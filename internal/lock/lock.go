// Package lock serializes mutations of one reconciliation session. The local
// backend covers a single process; the Redis backend covers several
// processes sharing one database.
package lock

import (
	"context"
	"sync"
)

// Unlock releases a held lock. It is safe to call once.
type Unlock func()

// Locker obtains exclusive, keyed locks.
type Locker interface {
	// Lock blocks until key is held or ctx is done. Failing to obtain the
	// lock yields a reconerr.ConflictError.
	Lock(ctx context.Context, key string) (Unlock, error)
}

// ReconciliationKey is the lock key for one session.
func ReconciliationKey(reconciliationID string) string {
	return "reconciliation:" + reconciliationID
}

// Local is an in-process keyed mutex.
type Local struct {
	mu   sync.Mutex
	keys map[string]*localEntry
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocal creates an empty Local locker.
func NewLocal() *Local {
	return &Local{keys: make(map[string]*localEntry)}
}

var _ Locker = (*Local)(nil)

// Lock implements Locker.
func (l *Local) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, notObtained(key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}

// held reports how many callers hold or wait for key.
func (l *Local) held(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.keys[key]; ok {
		return e.refs
	}
	return 0
}
