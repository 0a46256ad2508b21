// Package keylock provides keyed mutual exclusion.
//
// Curator serializes mutations of one tag (attach, detach, delete) under the
// key "tag:<id>" and tag creation for one user under "tags:<userID>". Entries are
// reference counted and dropped once the last holder unlocks, so the map stays
// proportional to in-flight work rather than to the number of keys ever seen.
package keylock

import (
	"slices"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker hands out one mutex per key.
type Locker struct {
	mu sync.Mutex
	m  map[string]*entry
}

// New creates an empty Locker.
func New() *Locker {
	return &Locker{m: make(map[string]*entry)}
}

// Lock blocks until the mutex for key is held and returns the function that
// releases it. Callers should defer the returned func.
func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	e, ok := l.m[key]
	if !ok {
		e = &entry{}
		l.m[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, key)
		}
		l.mu.Unlock()
	}
}

// LockMany acquires the mutexes for every key in a stable order so that two
// callers locking overlapping sets cannot deadlock. Duplicate keys are locked once.
func (l *Locker) LockMany(keys ...string) func() {
	sorted := sortedUnique(keys)
	unlocks := make([]func(), 0, len(sorted))
	for _, k := range sorted {
		unlocks = append(unlocks, l.Lock(k))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// Len returns the number of keys currently held or waited on.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// TagKey is the lock key guarding all association mutations of one tag.
func TagKey(tagID string) string {
	return "tag:" + tagID
}

// UserTagsKey is the lock key guarding tag creation and rename for one user.
func UserTagsKey(userID string) string {
	return "tags:" + userID
}

func sortedUnique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
