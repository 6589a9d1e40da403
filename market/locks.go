package market

import (
	"context"
	"sync"

	"github.com/iov-one/bazaar/errors"
)

// lockTable hands out one exclusive lock per asset id. Entries are
// reference counted and removed once nobody holds or waits for them.
type lockTable struct {
	mu    sync.Mutex
	locks map[uint64]*assetLock
}

type assetLock struct {
	// A buffered channel of size one works as a mutex that can be
	// acquired in a select.
	sem  chan struct{}
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[uint64]*assetLock)}
}

// Lock blocks until the lock of the asset is acquired or ctx is done. The
// returned function releases the lock and must be called exactly once.
func (t *lockTable) Lock(ctx context.Context, id uint64) (func(), error) {
	t.mu.Lock()
	l, ok := t.locks[id]
	if !ok {
		l = &assetLock{sem: make(chan struct{}, 1)}
		t.locks[id] = l
	}
	l.refs++
	t.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			t.release(id, l)
		}, nil
	case <-ctx.Done():
		t.release(id, l)
		return nil, errors.Wrapf(ctx.Err(), "lock asset %d", id)
	}
}

func (t *lockTable) release(id uint64, l *assetLock) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(t.locks, id)
	}
}

// size returns the number of assets locked or waited for.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
