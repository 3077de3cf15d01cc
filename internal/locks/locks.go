// Package locks provides per-account serialization for the transfer engine.
// Multi-account acquisition always happens in ascending id order so two
// transfers sharing accounts can never deadlock.
package locks

import (
	"context"
	"sort"
	"sync"
)

// Release frees a held lock set. It is safe to call on every exit path and
// is idempotent.
type Release func()

// Locker serializes access to a set of accounts.
type Locker interface {
	Acquire(ctx context.Context, accountIDs ...uint) (Release, error)
}

// KeyedLocker is an in-process Locker backed by one mutex per account id.
// Entries are reference-counted and removed when the last holder releases,
// so the map does not grow with the account table.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[uint]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[uint]*lockEntry)}
}

func (l *KeyedLocker) checkout(id uint) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	return e
}

func (l *KeyedLocker) checkin(id uint, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
}

type heldLock struct {
	id    uint
	entry *lockEntry
}

// Acquire locks the given accounts in canonical (ascending) order. Duplicate
// ids are collapsed. On context cancellation mid-acquisition, everything
// already held is released before returning.
func (l *KeyedLocker) Acquire(ctx context.Context, accountIDs ...uint) (Release, error) {
	ids := canonical(accountIDs)

	held := make([]heldLock, 0, len(ids))
	unwind := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].entry.mu.Unlock()
			l.checkin(held[i].id, held[i].entry)
		}
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			unwind()
			return nil, err
		}
		e := l.checkout(id)
		e.mu.Lock()
		held = append(held, heldLock{id: id, entry: e})
	}

	var once sync.Once
	release := func() { once.Do(unwind) }
	return release, nil
}

func canonical(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
