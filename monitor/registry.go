// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/go-core-stack/slowmode/errors"
	coresync "github.com/go-core-stack/slowmode/sync"
)

// controllerState pairs the event window of a channel with its live
// configuration. mu serialises pushes and config reads/writes. applyMu
// is held by an event from push to host write, so events of a channel
// reach the host in the order they entered the window; it also guards
// closed, set once the state leaves the registry.
type controllerState struct {
	mu     sync.Mutex
	window *Window
	config *EntityConfig

	applyMu sync.Mutex
	closed  bool
}

func newControllerState(cfg *EntityConfig) *controllerState {
	return &controllerState{
		window: NewWindow(cfg.WindowCapacity),
		config: cfg.Clone(),
	}
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger, defaults to a no-op logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithRegisterer registers the registry metrics with reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Registry) { r.reg = reg }
}

// WithPaceCeiling caps every computed slowmode at ceiling, the largest
// value the host accepts. Applies even to channels without an upper
// bound. Zero disables the cap.
func WithPaceCeiling(ceiling int) Option {
	return func(r *Registry) { r.paceCeiling = ceiling }
}

// Registry owns the controllers of all channels monitored by this
// process. Presence of a channel in the registry means it is actively
// monitored here. Operations on different channels proceed
// independently, operations on the same channel are serialised.
type Registry struct {
	store   Store
	host    Host
	logger  *zap.Logger
	reg     prometheus.Registerer
	metrics *registryMetrics

	paceCeiling int

	// per channel lifecycle locks, held across store calls
	locks *coresync.LockTable[string]

	// protects the states map only
	mu     sync.RWMutex
	states map[string]*controllerState
}

// NewRegistry allocates an empty registry backed by store and host
func NewRegistry(store Store, host Host, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		host:   host,
		logger: zap.NewNop(),
		locks:  coresync.NewLockTable[string](),
		states: map[string]*controllerState{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.metrics = newRegistryMetrics(r.reg)
	return r
}

func persistenceError(err error, format string, args ...any) error {
	return errors.WithCause(errors.PersistenceFailure, err, fmt.Sprintf(format, args...))
}

func (r *Registry) lookup(id string) *controllerState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.states[id]
}

// addChannel creates a controller with an empty window, unless one
// already exists. Returns true if a controller was created.
func (r *Registry) addChannel(cfg *EntityConfig) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.states[cfg.EntityID]; ok {
		return false
	}
	r.states[cfg.EntityID] = newControllerState(cfg)
	r.metrics.monitored.Set(float64(len(r.states)))
	return true
}

// removeChannel drops the controller of a channel without touching the
// store, absent channels are ignored. Returns once an event of the
// channel in flight has finished with the host; later events are
// ignored.
func (r *Registry) removeChannel(id string) bool {
	r.mu.Lock()
	st, ok := r.states[id]
	if ok {
		delete(r.states, id)
		r.metrics.monitored.Set(float64(len(r.states)))
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	st.applyMu.Lock()
	st.closed = true
	st.applyMu.Unlock()
	return true
}

// Initialize restores a controller for every persisted monitoring
// channel that the host can currently reach. Unreachable channels are
// skipped and left untouched in the store. Returns the number of
// channels activated.
func (r *Registry) Initialize(ctx context.Context) (int, error) {
	start := time.Now()
	configs, err := r.store.ListMonitoring(ctx)
	if err != nil {
		return 0, persistenceError(err, "failed to list monitored channels")
	}

	count := 0
	for _, cfg := range configs {
		if !r.host.IsReachable(ctx, cfg.EntityID) {
			r.logger.Debug("skipping unreachable channel",
				zap.String("entity", cfg.EntityID),
				zap.String("group", cfg.GroupID))
			continue
		}
		func() {
			l := r.locks.Acquire(cfg.EntityID)
			defer l.Close()
			if r.addChannel(cfg) {
				count++
			}
		}()
	}

	r.logger.Info("Successfully initialized channels",
		zap.Int("count", count),
		zap.Int("persisted", len(configs)),
		zap.Duration("duration", time.Since(start)))
	return count, nil
}

// GetConfig returns the persisted configuration of a channel, or nil
// when the channel was never configured
func (r *Registry) GetConfig(ctx context.Context, id string) (*EntityConfig, error) {
	cfg, err := r.store.Get(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, persistenceError(err, "failed to get config of channel %s", id)
	}
	return cfg, nil
}

// StartMonitoring activates the controller of a channel, creating its
// configuration with defaults on first use. Fails with
// errors.AlreadyMonitoring if the channel is already monitored.
func (r *Registry) StartMonitoring(ctx context.Context, e Entity) (*EntityConfig, error) {
	l, err := r.locks.AcquireContext(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	if r.lookup(e.ID) != nil {
		return nil, errors.Wrapf(errors.AlreadyMonitoring, "already monitoring channel %s", e.ID)
	}

	cfg, err := r.store.Get(ctx, e.ID)
	switch {
	case errors.IsNotFound(err):
		cfg = DefaultConfig(e, true)
		if err := r.store.Insert(ctx, cfg); err != nil {
			return nil, persistenceError(err, "failed to create config of channel %s", e.ID)
		}
	case err != nil:
		return nil, persistenceError(err, "failed to get config of channel %s", e.ID)
	default:
		if err := r.store.SetMonitoring(ctx, e.ID, true); err != nil {
			return nil, persistenceError(err, "failed to enable monitoring of channel %s", e.ID)
		}
		cfg.Monitoring = true
	}

	r.addChannel(cfg)
	r.logger.Info("started monitoring channel",
		zap.String("entity", cfg.EntityID),
		zap.String("group", cfg.GroupID))
	return cfg.Clone(), nil
}

// StopMonitoring drops the controller of a channel and persists that it
// is no longer monitored. Fails with errors.NotMonitoring if the channel
// is not monitored.
func (r *Registry) StopMonitoring(ctx context.Context, e Entity) error {
	l, err := r.locks.AcquireContext(ctx, e.ID)
	if err != nil {
		return err
	}
	defer l.Close()

	if r.lookup(e.ID) == nil {
		return errors.Wrapf(errors.NotMonitoring, "not currently monitoring channel %s", e.ID)
	}

	if err := r.store.SetMonitoring(ctx, e.ID, false); err != nil {
		return persistenceError(err, "failed to disable monitoring of channel %s", e.ID)
	}

	r.removeChannel(e.ID)
	r.logger.Info("stopped monitoring channel", zap.String("entity", e.ID))
	return nil
}

// UpdateConfig applies a partial update to the configuration of a
// channel and persists the result. A monitored channel has its live
// configuration updated; otherwise the patch is applied over the
// defaults and only persisted, monitoring is not started.
func (r *Registry) UpdateConfig(ctx context.Context, e Entity, p Patch) (*EntityConfig, error) {
	l, err := r.locks.AcquireContext(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	st := r.lookup(e.ID)

	var updated *EntityConfig
	if st != nil {
		st.mu.Lock()
		updated = st.config.Clone()
		st.mu.Unlock()
	} else {
		updated = DefaultConfig(e, false)
	}
	p.Apply(updated)

	if err := r.store.UpdateFields(ctx, updated); err != nil {
		return nil, persistenceError(err, "failed to update config of channel %s", e.ID)
	}

	if st != nil {
		st.mu.Lock()
		*st.config = *updated
		st.window.SetCapacity(updated.WindowCapacity)
		st.mu.Unlock()
	}

	r.logger.Debug("updated channel config",
		zap.String("entity", e.ID),
		zap.Bool("monitoring", updated.Monitoring),
		zap.Int("min", updated.PaceMin),
		zap.Int("max", updated.PaceMax),
		zap.Int("window", updated.WindowCapacity),
		zap.Float64("sensitivity", updated.Sensitivity))
	return updated.Clone(), nil
}

// ListGroup returns ids of the channels of a group persisted as
// monitoring
func (r *Registry) ListGroup(ctx context.Context, groupID string) ([]string, error) {
	ids, err := r.store.ListGroupMonitoring(ctx, groupID)
	if err != nil {
		return nil, persistenceError(err, "failed to list monitored channels of group %s", groupID)
	}
	return ids, nil
}

// ProcessEvent records an event of a monitored channel and pushes the
// recomputed slowmode to the host when it differs from the one the host
// currently applies. Events of channels that are not monitored are
// ignored. Events of one channel are processed one at a time, and none
// reaches the host once StopMonitoring returned. An edit the host
// throttles is counted and is not an error.
func (r *Registry) ProcessEvent(ctx context.Context, id string, ts time.Time) error {
	st := r.lookup(id)
	if st == nil {
		return nil
	}

	st.applyMu.Lock()
	defer st.applyMu.Unlock()
	if st.closed {
		return nil
	}

	st.mu.Lock()
	st.window.Push(ts)
	pace, ok := Compute(st.window, *st.config)
	size := st.window.Len()
	st.mu.Unlock()

	r.metrics.events.Inc()
	if !ok {
		reason := reasonZeroInterval
		if size < 2 {
			reason = reasonTooFewEvents
		}
		r.metrics.undefinedOutputs.WithLabelValues(reason).Inc()
		return nil
	}
	if r.paceCeiling > 0 {
		pace = min(pace, r.paceCeiling)
	}

	current, err := r.host.CurrentPace(ctx, id)
	if err != nil {
		r.metrics.applyFailures.Inc()
		return err
	}
	if current == pace {
		return nil
	}

	if err := r.host.ApplyPace(ctx, id, pace); err != nil {
		if errors.IsThrottled(err) {
			r.metrics.throttledUpdates.Inc()
			r.logger.Debug("slowmode update throttled",
				zap.String("entity", id),
				zap.Int("from", current),
				zap.Int("to", pace))
			return nil
		}
		r.metrics.applyFailures.Inc()
		return err
	}
	r.metrics.paceUpdates.Inc()
	r.logger.Info("updated slowmode",
		zap.String("entity", id),
		zap.Int("from", current),
		zap.Int("to", pace))
	return nil
}

// IsMonitoring reports whether the channel has an active controller
func (r *Registry) IsMonitoring(id string) bool {
	return r.lookup(id) != nil
}

// Config returns a snapshot of the live configuration of a monitored
// channel
func (r *Registry) Config(id string) (*EntityConfig, bool) {
	st := r.lookup(id)
	if st == nil {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.config.Clone(), true
}

// Monitored returns ids of all channels with an active controller
func (r *Registry) Monitored() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of channels with an active controller
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}
