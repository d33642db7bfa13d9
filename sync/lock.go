// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package sync provides an in-process lock table keyed by an arbitrary
// comparable key. Operations on different keys never contend with each
// other, while operations on the same key are serialised. Entries are
// reference counted and dropped from the table once the last holder or
// waiter is gone, so the table only grows with the number of keys in use.
package sync

import (
	"context"
	"sync"

	"github.com/go-core-stack/slowmode/errors"
)

type Lock interface {
	Close() error
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

type lockImpl[K comparable] struct {
	key    K
	tbl    *LockTable[K]
	entry  *lockEntry
	closed bool
}

func (l *lockImpl[K]) Close() error {
	if l.closed {
		return errors.Wrap(errors.InvalidArgument, "lock already released")
	}
	l.closed = true
	l.entry.mu.Unlock()
	l.tbl.release(l.key, l.entry)
	return nil
}

// LockTable hands out per key locks
type LockTable[K comparable] struct {
	// mutex protecting the entries map only, never held while
	// waiting on a key lock
	mu      sync.Mutex
	entries map[K]*lockEntry
}

// NewLockTable allocates an empty lock table
func NewLockTable[K comparable]() *LockTable[K] {
	return &LockTable[K]{
		entries: map[K]*lockEntry{},
	}
}

func (t *LockTable[K]) reference(key K) *lockEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[key]
	if !ok {
		entry = &lockEntry{}
		t.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (t *LockTable[K]) release(key K, entry *lockEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(t.entries, key)
	}
}

// Acquire blocks until the lock for the key is held by the caller.
// The returned Lock must be closed exactly once.
func (t *LockTable[K]) Acquire(key K) Lock {
	entry := t.reference(key)
	entry.mu.Lock()
	return &lockImpl[K]{
		key:   key,
		tbl:   t,
		entry: entry,
	}
}

// TryAcquire takes the lock for the key if it is free right now,
// otherwise returns an AlreadyExists error without waiting
func (t *LockTable[K]) TryAcquire(key K) (Lock, error) {
	entry := t.reference(key)
	if !entry.mu.TryLock() {
		t.release(key, entry)
		return nil, errors.Wrapf(errors.AlreadyExists, "lock for key %v is already held", key)
	}
	return &lockImpl[K]{
		key:   key,
		tbl:   t,
		entry: entry,
	}, nil
}

// AcquireContext waits for the lock for the key until the context is
// done, in which case the context error is returned
func (t *LockTable[K]) AcquireContext(ctx context.Context, key K) (Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l, err := t.TryAcquire(key); err == nil {
		return l, nil
	}
	acquired := make(chan Lock, 1)
	go func() {
		acquired <- t.Acquire(key)
	}()
	select {
	case l := <-acquired:
		return l, nil
	case <-ctx.Done():
		// hand the lock back as soon as the waiter gets it
		go func() {
			_ = (<-acquired).Close()
		}()
		return nil, ctx.Err()
	}
}

// Len returns number of keys currently referenced in the table
func (t *LockTable[K]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
