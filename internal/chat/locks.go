package chat

import (
	"context"
	"sync"
)

// TurnLocker serializes turns for one user across processes. unlock must be
// called exactly once after a successful lock.
type TurnLocker interface {
	LockTurn(ctx context.Context, userID string) (unlock func(), err error)
}

// userLocks serializes turns per user id. Entries are dropped once no turn
// holds or waits on them.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func (l *userLocks) Lock(userID string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*userLock)
	}
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
