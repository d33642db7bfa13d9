// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package reconciler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/go-core-stack/slowmode/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	counts map[string]int
	fail   map[string]int
	again  map[string]bool
}

func newRecorder() *recorder {
	return &recorder{
		counts: map[string]int{},
		fail:   map[string]int{},
		again:  map[string]bool{},
	}
}

func (r *recorder) reconcile(ctx context.Context, k string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[k]++
	if r.fail[k] > 0 {
		r.fail[k]--
		return nil, errors.Wrap(errors.Unknown, "test error return")
	}
	if r.again[k] {
		r.again[k] = false
		return &Result{RequeueAfter: 10 * time.Millisecond}, nil
	}
	return &Result{}, nil
}

func (r *recorder) count(k string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[k]
}

func Test_PipelineProcessesKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := newRecorder()
	p := NewPipeline(ctx, rec.reconcile)
	defer func() {
		cancel()
		p.Wait()
	}()

	require.NoError(t, p.Enqueue("a"))
	require.NoError(t, p.Enqueue("b"))

	assert.Eventually(t, func() bool {
		return rec.count("a") == 1 && rec.count("b") == 1
	}, time.Second, 5*time.Millisecond)
}

func Test_PipelineRequeue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := newRecorder()
	rec.fail["err"] = 2
	rec.again["later"] = true
	p := NewPipeline(ctx, rec.reconcile, WithBackoff(10*time.Millisecond))
	defer func() {
		cancel()
		p.Wait()
	}()

	require.NoError(t, p.Enqueue("err"))
	require.NoError(t, p.Enqueue("later"))

	assert.Eventually(t, func() bool {
		return rec.count("err") == 3 && rec.count("later") == 2
	}, time.Second, 5*time.Millisecond)

	// nothing further is scheduled once reconciliation succeeds
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, rec.count("err"))
	assert.Equal(t, 2, rec.count("later"))
}

func Test_PipelineCompressesPendingKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	var mu sync.Mutex
	seen := map[string]int{}
	p := NewPipeline(ctx, func(ctx context.Context, k string) (*Result, error) {
		if k == "gate" {
			<-block
		}
		mu.Lock()
		seen[k]++
		mu.Unlock()
		return nil, nil
	})
	defer func() {
		cancel()
		p.Wait()
	}()

	require.NoError(t, p.Enqueue("gate"))
	// wait for the gate to be dequeued so the following keys stay pending
	require.Eventually(t, func() bool { return p.Len() == 0 }, time.Second, time.Millisecond)
	for range 5 {
		require.NoError(t, p.Enqueue("dup"))
	}
	assert.Equal(t, 1, p.Len())
	close(block)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["dup"] == 1
	}, time.Second, 5*time.Millisecond)
}

func Test_PipelineStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPipeline(ctx, newRecorder().reconcile)
	cancel()
	p.Wait()

	assert.ErrorIs(t, p.Enqueue("a"), context.Canceled)
}
