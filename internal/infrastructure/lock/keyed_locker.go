package lock

import (
	"context"
	"sync"

	appshared "github.com/erp/manufacturing/internal/application/shared"
)

// keyEntry is the per-key semaphore with a count of holders and waiters
type keyEntry struct {
	sem  chan struct{}
	refs int
}

// KeyedLocker implements Locker with one in-process mutex per key.
// This is suitable for single-instance deployments and testing.
// Entries are dropped once nobody holds or waits for the key.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[string]*keyEntry
}

// NewKeyedLocker creates a new in-process keyed locker
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{entries: make(map[string]*keyEntry)}
}

// Acquire blocks until key is free or ctx is done
func (l *KeyedLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &keyEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.unref(key, e)
		})
	}, nil
}

func (l *KeyedLocker) unref(key string, e *keyEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Len returns the number of keys currently held or awaited
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

var _ appshared.Locker = (*KeyedLocker)(nil)
