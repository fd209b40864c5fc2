package categories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arborcms/arbor/models"
)

// hierarchyLocks serializes tree mutations per subtree root. Two writers
// touching different root trees proceed in parallel; writers on the same tree
// queue up. A writer that cannot take its locks within the configured timeout
// gives up with ErrHierarchyBusy instead of piling onto a hot subtree.
//
// Keys are root slugs. Cross-root moves take both keys in sorted order so two
// opposing moves cannot deadlock each other.
type hierarchyLocks struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	sem  chan struct{}
	refs int
}

func newHierarchyLocks() *hierarchyLocks {
	return &hierarchyLocks{slots: make(map[string]*lockSlot)}
}

// Acquire takes the locks for the given root keys, waiting at most timeout in
// total. Empty and duplicate keys are ignored. The returned release function
// is safe to call more than once.
func (l *hierarchyLocks) Acquire(ctx context.Context, timeout time.Duration, keys ...string) (func(), error) {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		uniq = append(uniq, key)
	}
	sort.Strings(uniq)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	held := make([]string, 0, len(uniq))
	releaseHeld := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i])
		}
	}

	for _, key := range uniq {
		slot := l.retain(key)
		select {
		case slot.sem <- struct{}{}:
			held = append(held, key)
		case <-timer.C:
			l.unref(key)
			releaseHeld()
			return nil, models.ErrHierarchyBusy
		case <-ctx.Done():
			l.unref(key)
			releaseHeld()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(releaseHeld) }, nil
}

// retain returns the slot for key, creating it on first use, and bumps its
// reference count so it cannot be reaped while a waiter exists.
func (l *hierarchyLocks) retain(key string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{sem: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

// unref drops a reference without touching the semaphore. The slot is reaped
// once the last reference is gone, keeping the map bounded by live roots.
func (l *hierarchyLocks) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		return
	}
	slot.refs--
	if slot.refs <= 0 {
		delete(l.slots, key)
	}
}

// release frees the semaphore held for key and drops its reference.
func (l *hierarchyLocks) release(key string) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	l.mu.Unlock()
	if !ok {
		return
	}
	<-slot.sem
	l.unref(key)
}
