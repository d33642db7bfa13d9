// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package monitor

import (
	"context"
)

// Store is the durable table of channel configurations. Each method is
// one logical operation with its own session and transaction boundary.
type Store interface {
	// ListMonitoring returns every configuration flagged as monitoring
	ListMonitoring(ctx context.Context) ([]*EntityConfig, error)

	// ListGroupMonitoring returns ids of the channels of a group that
	// are flagged as monitoring
	ListGroupMonitoring(ctx context.Context, groupID string) ([]string, error)

	// Get returns the configuration of a channel, or an errors.NotFound
	// error when none exists
	Get(ctx context.Context, entityID string) (*EntityConfig, error)

	// Insert adds a configuration, errors.AlreadyExists if one exists
	Insert(ctx context.Context, cfg *EntityConfig) error

	// SetMonitoring flips the monitoring flag of an existing row
	SetMonitoring(ctx context.Context, entityID string, monitoring bool) error

	// UpdateFields writes pace bounds, window capacity and sensitivity.
	// Creates the row with the given group and monitoring flag when
	// none exists, and never changes those two on an existing row.
	UpdateFields(ctx context.Context, cfg *EntityConfig) error
}

// Host is the surface owning the monitored channels
type Host interface {
	// IsReachable reports whether the channel currently exists and can
	// be managed, consulted when restoring persisted monitors
	IsReachable(ctx context.Context, entityID string) bool

	// CurrentPace returns the slowmode currently applied to the channel
	CurrentPace(ctx context.Context, entityID string) (int, error)

	// ApplyPace sets the slowmode of the channel
	ApplyPace(ctx context.Context, entityID string, pace int) error
}

// Releaser hands back what a host holds for a channel it no longer
// edits, such as its share of an edit budget
type Releaser interface {
	Release(entityID string)
}
