// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package host

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/go-core-stack/slowmode/errors"
	"github.com/go-core-stack/slowmode/monitor"
	"github.com/go-core-stack/slowmode/rate"
)

// Throttled limits how often the slowmode of channels is edited. Each
// channel draws from its own token bucket, and the buckets of channels
// being edited share the budget of the LimitManager. An edit without a
// token is skipped with an errors.Throttled error: the host keeps the
// old value, so the next event of the channel recomputes and retries it.
type Throttled struct {
	monitor.Host

	limits      *rate.LimitManager
	channelRate float64
	burst       int
	logger      *zap.Logger
	skipped     prometheus.Counter
	now         func() time.Time

	mu     sync.Mutex
	active map[string]*rate.Limiter
}

// ThrottledOption configures a Throttled host
type ThrottledOption func(*Throttled)

// WithThrottleLogger sets the logger, defaults to a no-op logger
func WithThrottleLogger(logger *zap.Logger) ThrottledOption {
	return func(t *Throttled) { t.logger = logger }
}

// WithThrottleRegisterer registers the skipped edits counter with reg
func WithThrottleRegisterer(reg prometheus.Registerer) ThrottledOption {
	return func(t *Throttled) {
		t.skipped = promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "slowmode_throttled_applies_total",
			Help: "Total number of slowmode edits skipped for lack of edit budget.",
		})
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) ThrottledOption {
	return func(t *Throttled) { t.now = now }
}

// NewThrottled wraps h so that every channel is edited at most
// channelRate times per second, with bursts of up to burst edits
func NewThrottled(h monitor.Host, limits *rate.LimitManager, channelRate float64, burst int, opts ...ThrottledOption) (*Throttled, error) {
	if channelRate <= 0 {
		return nil, errors.Wrapf(errors.InvalidArgument, "channel rate must be > 0, got %v", channelRate)
	}
	if burst < 1 {
		return nil, errors.Wrapf(errors.InvalidArgument, "burst must be >= 1, got %d", burst)
	}
	t := &Throttled{
		Host:        h,
		limits:      limits,
		channelRate: channelRate,
		burst:       burst,
		logger:      zap.NewNop(),
		now:         time.Now,
		active:      map[string]*rate.Limiter{},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.skipped == nil {
		t.skipped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slowmode_throttled_applies_total",
		})
	}
	return t, nil
}

func (t *Throttled) limiter(entityID string) (*rate.Limiter, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if lim, ok := t.active[entityID]; ok {
		return lim, nil
	}
	lim, err := t.limits.Locate(entityID, t.channelRate, t.burst)
	if err != nil {
		return nil, err
	}
	lim.SetInUse(true)
	t.active[entityID] = lim
	return lim, nil
}

// ApplyPace forwards the edit when the channel has budget left,
// otherwise returns errors.Throttled without touching the host
func (t *Throttled) ApplyPace(ctx context.Context, entityID string, pace int) error {
	lim, err := t.limiter(entityID)
	if err != nil {
		return err
	}
	if !lim.AllowAt(t.now()) {
		t.skipped.Inc()
		t.logger.Debug("skipping slowmode edit, out of budget",
			zap.String("entity", entityID),
			zap.Int("pace", pace),
			zap.Float64("limit", float64(lim.Limit())))
		return errors.Wrapf(errors.Throttled, "slowmode edit of channel %s throttled", entityID)
	}
	return t.Host.ApplyPace(ctx, entityID, pace)
}

// Release returns the budget share of a channel no longer edited
func (t *Throttled) Release(entityID string) {
	t.mu.Lock()
	lim, ok := t.active[entityID]
	delete(t.active, entityID)
	t.mu.Unlock()
	if !ok {
		return
	}
	lim.SetInUse(false)
	if err := t.limits.Remove(entityID); err != nil && !errors.IsNotFound(err) {
		t.logger.Warn("failed to release edit budget",
			zap.String("entity", entityID),
			zap.Error(err))
	}
}

// Active returns the number of channels currently holding a budget share
func (t *Throttled) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

var _ monitor.Host = (*Throttled)(nil)
