// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package monitor

const (
	// default lower bound on the slowmode, in seconds
	DefaultPaceMin = 0

	// default upper bound on the slowmode, in seconds
	DefaultPaceMax = 30

	// default number of event timestamps kept per channel
	DefaultWindowCapacity = 15

	// default sensitivity
	DefaultSensitivity = 1.0
)

// Entity identifies a monitored channel and the group (guild) it
// belongs to, as supplied by the command surface
type Entity struct {
	ID      string
	GroupID string
}

// EntityConfig is the persisted configuration of a channel monitor
type EntityConfig struct {
	EntityID       string
	GroupID        string
	PaceMin        int
	PaceMax        int // 0 means no upper cap
	WindowCapacity int
	Sensitivity    float64
	Monitoring     bool
}

// DefaultConfig returns the configuration used for a channel that has
// never been configured
func DefaultConfig(e Entity, monitoring bool) *EntityConfig {
	return &EntityConfig{
		EntityID:       e.ID,
		GroupID:        e.GroupID,
		PaceMin:        DefaultPaceMin,
		PaceMax:        DefaultPaceMax,
		WindowCapacity: DefaultWindowCapacity,
		Sensitivity:    DefaultSensitivity,
		Monitoring:     monitoring,
	}
}

// Clone returns an independent copy
func (c *EntityConfig) Clone() *EntityConfig {
	cp := *c
	return &cp
}

// Bounds is the inclusive slowmode range, always set as a pair
type Bounds struct {
	Min int
	Max int
}

// Patch is a partial configuration update. A nil field is left
// unchanged; a non-nil field is applied even when it holds a zero value.
type Patch struct {
	Bounds         *Bounds
	WindowCapacity *int
	Sensitivity    *float64
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Bounds == nil && p.WindowCapacity == nil && p.Sensitivity == nil
}

// Apply writes the present fields of the patch into cfg
func (p Patch) Apply(cfg *EntityConfig) {
	if p.Bounds != nil {
		cfg.PaceMin = p.Bounds.Min
		cfg.PaceMax = p.Bounds.Max
	}
	if p.WindowCapacity != nil {
		cfg.WindowCapacity = *p.WindowCapacity
	}
	if p.Sensitivity != nil {
		cfg.Sensitivity = *p.Sensitivity
	}
}
