// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps a token bucket rate limiter and reports usage back to the
// LimitManager so the shared capacity can be rebalanced.
type Limiter struct {
	mgr     *LimitManager
	key     string
	rate    float64 // nominal edits per second requested for this key
	burst   int
	limiter *rate.Limiter
	usage   int // number of concurrent users that have marked the limiter as in-use
	mu      sync.Mutex
}

// SetInUse increments or decrements the active usage counter and notifies the
// LimitManager when the limiter transitions between idle and active states.
func (l *Limiter) SetInUse(use bool) {
	if l.mgr == nil {
		panic("limiter not initialized with manager")
	}
	l.mu.Lock()
	notify, activate := false, false
	if use {
		if l.usage == 0 {
			l.usage = 1
			notify, activate = true, true
		} else {
			l.usage++
		}
	} else {
		if l.usage == 1 {
			l.usage = 0
			notify = true
		} else if l.usage > 1 {
			l.usage--
		}
	}
	l.mu.Unlock()
	if notify {
		l.mgr.updateInUse(l, activate)
	}
}

// Allow reports whether one token is available now, consuming it if so.
// It never blocks.
func (l *Limiter) Allow() bool {
	return l.AllowAt(time.Now())
}

// AllowAt is Allow evaluated at the given instant
func (l *Limiter) AllowAt(now time.Time) bool {
	if l.mgr == nil {
		panic("limiter not initialized with manager")
	}
	return l.limiter.AllowN(now, 1)
}

// Limit returns the currently effective rate, after rebalancing
func (l *Limiter) Limit() rate.Limit {
	return l.limiter.Limit()
}

// Key returns the key the limiter is registered with
func (l *Limiter) Key() string {
	return l.key
}
