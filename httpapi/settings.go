// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package httpapi

import (
	"github.com/go-core-stack/slowmode/errors"
	"github.com/go-core-stack/slowmode/host"
	"github.com/go-core-stack/slowmode/monitor"
)

// SettingsPatch is the body of a settings update, absent fields are
// left unchanged. Min and Max are only accepted together.
type SettingsPatch struct {
	Min         *int     `json:"min,omitempty"`
	Max         *int     `json:"max,omitempty"`
	CacheSize   *int     `json:"cacheSize,omitempty"`
	Sensitivity *float64 `json:"sensitivity,omitempty"`
}

// Patch validates the request and converts it to a monitor.Patch
func (s *SettingsPatch) Patch() (monitor.Patch, error) {
	p := monitor.Patch{}

	switch {
	case s.Min == nil && s.Max == nil:
	case s.Min == nil || s.Max == nil:
		return p, errors.Wrap(errors.InvalidArgument, "min and max must be set together")
	default:
		lo, hi := *s.Min, *s.Max
		if lo < 0 {
			return p, errors.Wrapf(errors.InvalidArgument, "min %d must not be negative", lo)
		}
		if hi < lo {
			return p, errors.Wrapf(errors.InvalidArgument, "max %d must not be below min %d", hi, lo)
		}
		if hi > host.MaxPace {
			return p, errors.Wrapf(errors.InvalidArgument, "max %d must not exceed %d", hi, host.MaxPace)
		}
		p.Bounds = &monitor.Bounds{Min: lo, Max: hi}
	}

	if s.CacheSize != nil {
		if *s.CacheSize < MinCacheSize || *s.CacheSize > MaxCacheSize {
			return p, errors.Wrapf(errors.InvalidArgument, "cacheSize %d must be within [%d, %d]",
				*s.CacheSize, MinCacheSize, MaxCacheSize)
		}
		p.WindowCapacity = s.CacheSize
	}

	if s.Sensitivity != nil {
		if !(*s.Sensitivity > 0) {
			return p, errors.Wrapf(errors.InvalidArgument, "sensitivity %v must be positive", *s.Sensitivity)
		}
		p.Sensitivity = s.Sensitivity
	}
	return p, nil
}
