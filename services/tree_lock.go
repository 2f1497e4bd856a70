package services

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TreeLocker serializes tree mutations per owner account. A cascade (trash,
// purge) or a move holds the owner's lock for its whole duration, so a
// concurrent re-parent can never tear a subtree mid-walk. Different accounts
// never contend.
type TreeLocker struct {
	mu    sync.Mutex
	locks map[primitive.ObjectID]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func NewTreeLocker() *TreeLocker {
	return &TreeLocker{locks: make(map[primitive.ObjectID]*ownerLock)}
}

// Lock acquires the owner's tree lock and returns the unlock function.
// Entries are reference-counted and dropped when the last holder or waiter
// releases, so the map does not grow with every account ever seen.
func (t *TreeLocker) Lock(owner primitive.ObjectID) func() {
	t.mu.Lock()
	lock, ok := t.locks[owner]
	if !ok {
		lock = &ownerLock{}
		t.locks[owner] = lock
	}
	lock.refs++
	t.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		t.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(t.locks, owner)
		}
		t.mu.Unlock()
	}
}
