// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package host provides the channel side of the slowmode controller:
// a directory of the channels this process can manage, and a decorator
// throttling how often their slowmode is edited.
package host

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/go-core-stack/slowmode/errors"
	"github.com/go-core-stack/slowmode/monitor"
	"github.com/go-core-stack/slowmode/utils"
)

// MaxPace is the largest slowmode a channel accepts, six hours
const MaxPace = 21600

// Channel as known to the directory
type Channel struct {
	ID      string
	GroupID string
	Pace    int
}

// Directory is an in-memory table of the channels currently reachable,
// fed by the command surface. It records slowmode edits applied by the
// controller.
type Directory struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	logger   *zap.Logger
}

// DirectoryOption configures a Directory
type DirectoryOption func(*Directory)

// WithDirectoryLogger sets the logger, defaults to a no-op logger
func WithDirectoryLogger(logger *zap.Logger) DirectoryOption {
	return func(d *Directory) { d.logger = logger }
}

// NewDirectory allocates an empty directory
func NewDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{
		channels: map[string]*Channel{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a channel or refreshes its group and current slowmode
func (d *Directory) Register(id, groupID string, pace int) error {
	if !utils.IsValidIdentifier(id) {
		return errors.Wrapf(errors.InvalidArgument, "invalid channel id %q", id)
	}
	if groupID != "" && !utils.IsValidIdentifier(groupID) {
		return errors.Wrapf(errors.InvalidArgument, "invalid group id %q", groupID)
	}
	if pace < 0 || pace > MaxPace {
		return errors.Wrapf(errors.InvalidArgument, "slowmode %d out of range [0, %d]", pace, MaxPace)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[id] = &Channel{ID: id, GroupID: groupID, Pace: pace}
	return nil
}

// Forget marks a channel unreachable, returns false if it was unknown
func (d *Directory) Forget(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.channels[id]; !ok {
		return false
	}
	delete(d.channels, id)
	return true
}

// Lookup returns a copy of the channel
func (d *Directory) Lookup(id string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.channels[id]
	if !ok {
		return Channel{}, false
	}
	return *ch, true
}

// Len returns the number of reachable channels
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.channels)
}

func (d *Directory) IsReachable(ctx context.Context, entityID string) bool {
	_, ok := d.Lookup(entityID)
	return ok
}

func (d *Directory) CurrentPace(ctx context.Context, entityID string) (int, error) {
	ch, ok := d.Lookup(entityID)
	if !ok {
		return 0, errors.Wrapf(errors.NotFound, "channel %s not found", entityID)
	}
	return ch.Pace, nil
}

func (d *Directory) ApplyPace(ctx context.Context, entityID string, pace int) error {
	if pace < 0 || pace > MaxPace {
		return errors.Wrapf(errors.InvalidArgument, "slowmode %d out of range [0, %d]", pace, MaxPace)
	}
	d.mu.Lock()
	ch, ok := d.channels[entityID]
	if !ok {
		d.mu.Unlock()
		return errors.Wrapf(errors.NotFound, "channel %s not found", entityID)
	}
	prev := ch.Pace
	ch.Pace = pace
	d.mu.Unlock()

	d.logger.Info("updated slowmode",
		zap.String("entity", entityID),
		zap.String("group", ch.GroupID),
		zap.Int("from", prev),
		zap.Int("to", pace))
	return nil
}

var _ monitor.Host = (*Directory)(nil)
