// Package rate provides rate limiting primitives with dynamic capacity rebalancing.
//
// # Overview
//
// The package implements token bucket limiters, one per key, whose sustained
// rates are rebalanced against a shared budget. In this repository a key is a
// monitored channel and a token is one slowmode edit pushed to the chat
// platform, which enforces a global budget on channel edits.
//
// # Architecture
//
//   - LimitManager: owns the limiters and the aggregate budget
//   - Limiter: per key token bucket with usage reporting
//
// # Dynamic Capacity Rebalancing
//
// When a limiter is marked in use it is scaled so that all in-use limiters
// together consume exactly the aggregate budget, proportionally to their
// nominal rates. When it goes idle it falls back to its nominal rate and its
// share is redistributed. A zero budget disables rebalancing and every
// limiter keeps its nominal rate.
//
// # Example Usage
//
//	mgr := rate.NewLimitManager(0.5) // at most one edit every 2s overall
//	lim, _ := mgr.Locate("channel-1", 0.1, 2)
//	lim.SetInUse(true)
//	if lim.Allow() {
//		// push the edit
//	}
//
// Allow never blocks: callers that cannot spend a token right now are
// expected to skip the action and retry on a later trigger.
package rate
