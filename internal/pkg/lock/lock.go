// Package lock provides keyed in-process locking for read-modify-write
// sequences that touch one or more entities (balances, loadouts, counters).
package lock

import (
	"sort"
	"sync"
)

// keyMutex wraps a mutex with a holder count so idle entries can be dropped.
type keyMutex struct {
	mu      sync.Mutex
	holders int
}

// KeyLock serializes work per entity key. Keys are opaque strings such as
// "balance:<server>:<user>".
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyMutex
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*keyMutex)}
}

// acquire returns the mutex for key, registering the caller as a holder.
func (kl *KeyLock) acquire(key string) *keyMutex {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	m, ok := kl.locks[key]
	if !ok {
		m = &keyMutex{}
		kl.locks[key] = m
	}
	m.holders++
	return m
}

// release drops the caller's claim and forgets the entry when nobody holds or waits on it.
func (kl *KeyLock) release(key string, m *keyMutex) {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	m.holders--
	if m.holders == 0 {
		delete(kl.locks, key)
	}
}

// Lock blocks until the key is held by the caller.
func (kl *KeyLock) Lock(key string) {
	kl.acquire(key).mu.Lock()
}

// Unlock releases a key previously locked with Lock.
func (kl *KeyLock) Unlock(key string) {
	kl.mu.Lock()
	m, ok := kl.locks[key]
	kl.mu.Unlock()
	if !ok {
		return
	}
	m.mu.Unlock()
	kl.release(key, m)
}

// LockAll locks every distinct key in sorted order and returns the matching unlock.
// Sorted acquisition keeps two multi-entity operations from deadlocking each other.
func (kl *KeyLock) LockAll(keys ...string) (unlock func()) {
	ordered := dedupe(keys)
	for _, k := range ordered {
		kl.Lock(k)
	}
	return func() {
		for i := len(ordered) - 1; i >= 0; i-- {
			kl.Unlock(ordered[i])
		}
	}
}

func dedupe(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
