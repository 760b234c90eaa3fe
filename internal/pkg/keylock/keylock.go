// Package keylock provides per-key mutual exclusion for serializing
// operations on individual aggregates, plus a companion flag set used to
// signal cancellation into an in-flight operation.
package keylock

import "sync"

// KeyedMutex serializes operations per key. Operations on different keys
// proceed concurrently; operations on the same key queue up. The zero
// value is not usable, construct with NewKeyedMutex.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu sync.Mutex
	// refs counts holders and waiters so the entry can be dropped once
	// the last one releases.
	refs int
}

// NewKeyedMutex creates an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*keyLock),
	}
}

// Lock acquires the mutex for the key, blocking while another holder owns it.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyLock{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the mutex for the key. The entry is removed once no
// holder or waiter remains.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if ok {
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
	}
	k.mu.Unlock()

	if ok {
		entry.mu.Unlock()
	}
}

// FlagSet is a concurrent set of string flags. It carries pending-cancel
// markers raised while the flagged aggregate is locked by another
// operation; the holder checks the flag before committing.
type FlagSet struct {
	mu    sync.Mutex
	flags map[string]struct{}
}

// NewFlagSet creates an empty flag set.
func NewFlagSet() *FlagSet {
	return &FlagSet{
		flags: make(map[string]struct{}),
	}
}

// Raise marks the key.
func (f *FlagSet) Raise(key string) {
	f.mu.Lock()
	f.flags[key] = struct{}{}
	f.mu.Unlock()
}

// IsRaised reports whether the key is marked.
func (f *FlagSet) IsRaised(key string) bool {
	f.mu.Lock()
	_, ok := f.flags[key]
	f.mu.Unlock()
	return ok
}

// Clear removes the mark and reports whether it was set.
func (f *FlagSet) Clear(key string) bool {
	f.mu.Lock()
	_, ok := f.flags[key]
	delete(f.flags, key)
	f.mu.Unlock()
	return ok
}
