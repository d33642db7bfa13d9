// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package monitor

import (
	"math"
)

// TargetScale relates sensitivity to the targeted pacing, a sensitivity
// of 1.0 aims for a slowmode of 10s when messages arrive 1s apart
const TargetScale = 10

// Compute returns the slowmode recommended for the window contents,
// clamped to the configured bounds. The boolean is false when there is
// no recommendation: fewer than two timestamps, or an average interval of
// exactly zero.
//
// The ratio is rounded half to even. An upper bound of 0 means uncapped.
// The upper bound is applied before the lower bound, so the lower bound
// wins when the two are inverted.
func Compute(w *Window, cfg EntityConfig) (int, bool) {
	if w.Len() < 2 {
		return 0, false
	}

	target := cfg.Sensitivity * TargetScale

	var sum float64
	var n int
	for d := range w.Intervals() {
		sum += d
		n++
	}
	avg := sum / float64(n)

	// burst of events at the same instant, keep the current pace
	if avg == 0 {
		return 0, false
	}

	pace := int(math.RoundToEven(target / avg))

	if cfg.PaceMax != 0 {
		pace = min(pace, cfg.PaceMax)
	}
	pace = max(pace, cfg.PaceMin)

	return pace, true
}
