// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/go-core-stack/slowmode/errors"
	"github.com/go-core-stack/slowmode/reconciler"
)

// DefaultResyncInterval is used when no interval is configured
const DefaultResyncInterval = 5 * time.Minute

// Resyncer periodically brings the registry in line with the store and
// the host: channels persisted as monitoring and reachable get a
// controller, every other controller is dropped.
type Resyncer struct {
	registry *Registry
	interval time.Duration
	backoff  time.Duration
	logger   *zap.Logger
	releaser Releaser

	// identifies this process in logs
	owner string
}

// ResyncOption configures a Resyncer
type ResyncOption func(*Resyncer)

// WithResyncLogger sets the logger, defaults to the registry logger
func WithResyncLogger(logger *zap.Logger) ResyncOption {
	return func(s *Resyncer) { s.logger = logger }
}

// WithResyncBackoff sets the delay before a failed channel is retried
func WithResyncBackoff(d time.Duration) ResyncOption {
	return func(s *Resyncer) { s.backoff = d }
}

// WithResyncReleaser hands back the host resources of every channel
// whose controller the resyncer drops
func WithResyncReleaser(rel Releaser) ResyncOption {
	return func(s *Resyncer) { s.releaser = rel }
}

// NewResyncer creates a resyncer over r running every interval, a
// non-positive interval selects DefaultResyncInterval
func NewResyncer(r *Registry, interval time.Duration, opts ...ResyncOption) *Resyncer {
	if interval <= 0 {
		interval = DefaultResyncInterval
	}
	s := &Resyncer{
		registry: r,
		interval: interval,
		backoff:  time.Second,
		logger:   r.logger,
		owner:    uuid.New().String(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run resyncs immediately and then every interval, until ctx is done
func (s *Resyncer) Run(ctx context.Context) error {
	p := reconciler.NewPipeline(ctx, s.reconcile,
		reconciler.WithLogger(s.logger),
		reconciler.WithBackoff(s.backoff))
	defer p.Wait()

	s.logger.Info("starting resync loop",
		zap.String("owner", s.owner),
		zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.enqueueAll(ctx, p); err != nil && ctx.Err() == nil {
			s.logger.Error("failed to list channels for resync",
				zap.String("owner", s.owner),
				zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Resyncer) enqueueAll(ctx context.Context, p *reconciler.Pipeline[string]) error {
	// in-memory first, so that stale controllers are dropped even when
	// the store cannot be listed
	for _, id := range s.registry.Monitored() {
		if err := p.Enqueue(id); err != nil {
			return err
		}
	}
	configs, err := s.registry.store.ListMonitoring(ctx)
	if err != nil {
		return err
	}
	for _, cfg := range configs {
		if err := p.Enqueue(cfg.EntityID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Resyncer) drop(id, msg string) {
	if !s.registry.removeChannel(id) {
		return
	}
	if s.releaser != nil {
		s.releaser.Release(id)
	}
	s.logger.Info(msg,
		zap.String("owner", s.owner),
		zap.String("entity", id))
}

// reconcile applies the persisted and reachable state of one channel
// to the registry, without writing to the store
func (s *Resyncer) reconcile(ctx context.Context, id string) (*reconciler.Result, error) {
	r := s.registry
	l, err := r.locks.AcquireContext(ctx, id)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	cfg, err := r.store.Get(ctx, id)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	if cfg == nil || !cfg.Monitoring {
		s.drop(id, "dropped controller of channel no longer monitored")
		return nil, nil
	}

	if !r.host.IsReachable(ctx, id) {
		s.drop(id, "dropped controller of unreachable channel")
		return nil, nil
	}

	if r.addChannel(cfg) {
		s.logger.Info("restored controller of channel",
			zap.String("owner", s.owner),
			zap.String("entity", id),
			zap.String("group", cfg.GroupID))
	}
	return nil, nil
}
