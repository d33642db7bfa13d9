// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package reconciler provides a keyed work queue in the spirit of
// kubernetes controller-runtime, where notifications for a key already
// waiting in the queue are compressed into one.
// https://github.com/kubernetes-sigs/controller-runtime/blob/main/pkg/reconcile/reconcile.go
package reconciler

import (
	"context"
	"time"
)

// Result of a single reconciliation
type Result struct {
	// RequeueAfter if greater than 0, tells the pipeline to requeue the
	// key after the Duration.
	RequeueAfter time.Duration
}

// Func reconciles the state identified by key k. A returned error
// requeues the key after the pipeline backoff.
type Func[K comparable] func(ctx context.Context, k K) (*Result, error)
