// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package reconciler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Since Reconciler Pipeline will be used across go routines, it is
// quite possible to have producers and consumers to work at
// different speeds with a possibility of having backlogs or causing
// holdups, thus by default use a buffer length of 1024 for every
// Pipeline to ensure producers can just work seemlessly under
// regular scenarios
// Note: this is expected to be consumed only locally
const bufferLength = 1024

// delay before a key whose reconciliation failed is processed again
const defaultBackoff = time.Second

type pipelineOptions struct {
	logger  *zap.Logger
	backoff time.Duration
}

// Option configures a Pipeline
type Option func(*pipelineOptions)

// WithLogger sets the logger used to report failed reconciliations
func WithLogger(logger *zap.Logger) Option {
	return func(o *pipelineOptions) { o.logger = logger }
}

// WithBackoff sets the delay before retrying a failed key
func WithBackoff(d time.Duration) Option {
	return func(o *pipelineOptions) { o.backoff = d }
}

// Pipeline of keys to be processed by reconciler upon notification
type Pipeline[K comparable] struct {
	// context under which the pipeline is working
	// where the context closure means the pipeline is stopped
	ctx context.Context

	// map of entries to work with, here we are storing entries in a map
	// to enable possibility of compressing notifications while trying
	// to enqueue an entry which is already in pipeline
	pMap sync.Map

	// Pipeline is internally built on a buffered channel internally
	pChannel chan K

	// reconciler function to trigger while processing an entry in the
	// pipeline
	reconciler Func[K]

	opts pipelineOptions

	// tracks the processing loop and pending requeue timers
	wg sync.WaitGroup
}

// Enqueue adds k to the pipeline unless it is already waiting. Blocks
// while the buffer is full, until the pipeline is stopped.
func (p *Pipeline[K]) Enqueue(k K) error {
	// do not allow if the context is already closed
	if p.ctx.Err() != nil {
		return p.ctx.Err()
	}

	// load or store the entry to sync map, checking existence of the
	// entry in the Pipeline, ensuring compressing multiple
	// notifications for a single entry into one
	_, loaded := p.pMap.LoadOrStore(k, nil)
	if loaded {
		return nil
	}

	select {
	case p.pChannel <- k:
		return nil
	case <-p.ctx.Done():
		p.pMap.Delete(k)
		return p.ctx.Err()
	}
}

// Len returns number of keys waiting to be processed
func (p *Pipeline[K]) Len() int {
	return len(p.pChannel)
}

// Wait blocks until the pipeline is stopped and every pending requeue
// timer has exited
func (p *Pipeline[K]) Wait() {
	p.wg.Wait()
}

func (p *Pipeline[K]) requeueAfter(k K, d time.Duration) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-p.ctx.Done():
		case <-t.C:
			_ = p.Enqueue(k)
		}
	}()
}

// initialize and start the pipeline processing
// internal function and should not be exposed outside
func (p *Pipeline[K]) initialize() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			// pipeline processing is stopped return from here
			return
		case k := <-p.pChannel:
			// delete the key from the map while triggering the
			// reconciler, so that notifications arriving meanwhile
			// are processed again
			p.pMap.Delete(k)

			res, err := p.reconciler(p.ctx, k)
			if err != nil {
				if p.ctx.Err() != nil {
					return
				}
				p.opts.logger.Warn("reconciliation failed, requeuing",
					zap.Any("key", k),
					zap.Duration("backoff", p.opts.backoff),
					zap.Error(err))
				p.requeueAfter(k, p.opts.backoff)
			} else if res != nil && res.RequeueAfter != 0 {
				p.requeueAfter(k, res.RequeueAfter)
			}
		}
	}
}

// NewPipeline creates a Pipeline for queuing up and processing keys
// provided for reconciliation, processing stops once ctx is done
func NewPipeline[K comparable](ctx context.Context, fn Func[K], opts ...Option) *Pipeline[K] {
	p := &Pipeline[K]{
		ctx:        ctx,
		pChannel:   make(chan K, bufferLength),
		reconciler: fn,
		opts: pipelineOptions{
			logger:  zap.NewNop(),
			backoff: defaultBackoff,
		},
	}
	for _, opt := range opts {
		opt(&p.opts)
	}

	// initialize the pipeline before passing it externally
	// to start the core functionality
	p.wg.Add(1)
	go p.initialize()
	return p
}
