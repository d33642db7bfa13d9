// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rate

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/go-core-stack/slowmode/errors"
)

// LimitManager tracks the configured limiters and redistributes
// capacity when individual limiters go in or out of active use.
type LimitManager struct {
	rate     float64             // aggregate rate budget shared by all limiters, 0 means unbounded
	mu       sync.Mutex          // protects concurrent access to the limiter state
	limiters map[string]*Limiter // registry of all configured limiters
	inUse    map[string]*Limiter // subset of limiters currently marked as active
}

// updateInUse marks a limiter as being actively used and reapportions
// the available rate across the currently active limiters.
func (m *LimitManager) updateInUse(l *Limiter, use bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if use {
		m.inUse[l.key] = l
	} else {
		delete(m.inUse, l.key)
		l.limiter.SetLimit(rate.Limit(l.rate))
		if len(m.inUse) == 0 {
			return
		}
	}
	m.rebalanceLocked()
}

// rebalanceLocked scales every active limiter in proportion to its nominal
// rate so that together they consume exactly the shared budget. Callers
// must hold m.mu.
func (m *LimitManager) rebalanceLocked() {
	if m.rate <= 0 {
		return
	}
	var sumActive float64
	for _, l := range m.inUse {
		sumActive += l.rate
	}
	if sumActive <= 0 {
		return
	}
	for _, l := range m.inUse {
		l.limiter.SetLimit(rate.Limit(l.rate * m.rate / sumActive))
	}
}

// NewLimiter registers a limiter with the manager and returns it for use.
// The limiter is configured with the provided sustained rate and burst size.
func (m *LimitManager) NewLimiter(key string, r float64, burst int) (*Limiter, error) {
	if burst < 1 {
		return nil, errors.Wrapf(errors.InvalidArgument, "burst must be >= 1")
	}
	if r <= 0 {
		return nil, errors.Wrapf(errors.InvalidArgument, "rate must be > 0, got %v", r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.limiters[key]
	if ok {
		return nil, errors.Wrapf(errors.AlreadyExists, "limiter %q, already exists", key)
	}
	lim := &Limiter{
		mgr:     m,
		key:     key,
		rate:    r,
		burst:   burst,
		limiter: rate.NewLimiter(rate.Limit(r), burst),
	}
	m.limiters[key] = lim
	return lim, nil
}

// Locate returns the limiter registered for key, registering a new one
// with the given rate and burst when none exists yet
func (m *LimitManager) Locate(key string, r float64, burst int) (*Limiter, error) {
	m.mu.Lock()
	lim, ok := m.limiters[key]
	m.mu.Unlock()
	if ok {
		return lim, nil
	}
	lim, err := m.NewLimiter(key, r, burst)
	if errors.IsAlreadyExists(err) {
		// lost a race with a concurrent Locate
		return m.Get(key)
	}
	return lim, err
}

// Get returns the limiter registered for key
func (m *LimitManager) Get(key string) (*Limiter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lim, ok := m.limiters[key]
	if !ok {
		return nil, errors.Wrapf(errors.NotFound, "limiter %q not found", key)
	}
	return lim, nil
}

// Remove unregisters the limiter for key, releasing its share of the
// budget back to the remaining active limiters
func (m *LimitManager) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lim, ok := m.limiters[key]
	if !ok {
		return errors.Wrapf(errors.NotFound, "limiter %q not found", key)
	}
	delete(m.limiters, key)
	if _, active := m.inUse[key]; active {
		delete(m.inUse, key)
		lim.limiter.SetLimit(rate.Limit(lim.rate))
		m.rebalanceLocked()
	}
	return nil
}

// Len returns the number of registered limiters
func (m *LimitManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

// NewLimitManager constructs a LimitManager with the specified aggregate rate budget.
func NewLimitManager(rate float64) *LimitManager {
	return &LimitManager{
		rate:     rate,
		limiters: make(map[string]*Limiter),
		inUse:    make(map[string]*Limiter),
	}
}
