// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package monitor

import (
	"iter"
	"time"
)

// initial slots allocated for a window ring, grows by doubling
const minWindowSlots = 4

// Window is a bounded FIFO of event timestamps kept in arrival order.
// Timestamps are expected to be non-decreasing; the window does not sort.
// Not safe for concurrent use, the owning controller state serialises
// access.
type Window struct {
	slots    []time.Time // ring storage
	first    int         // index into slots of the oldest timestamp
	size     int         // number of timestamps held
	capacity int         // maximum number of timestamps retained after a push
}

// NewWindow returns an empty window retaining at most capacity timestamps
func NewWindow(capacity int) *Window {
	return &Window{
		capacity: capacity,
	}
}

// Push appends ts at the tail and drops from the head while the window
// holds more than its capacity
func (w *Window) Push(ts time.Time) {
	if w.size == len(w.slots) {
		w.grow()
	}
	w.slots[(w.first+w.size)%len(w.slots)] = ts
	w.size++

	for w.size > w.capacity && w.size > 0 {
		w.slots[w.first] = time.Time{}
		w.first = (w.first + 1) % len(w.slots)
		w.size--
	}
	if w.size == 0 {
		w.first = 0
	}
}

func (w *Window) grow() {
	n := 2 * len(w.slots)
	if n < minWindowSlots {
		n = minWindowSlots
	}
	slots := make([]time.Time, n)
	for i := 0; i < w.size; i++ {
		slots[i] = w.slots[(w.first+i)%len(w.slots)]
	}
	w.slots = slots
	w.first = 0
}

func (w *Window) at(i int) time.Time {
	return w.slots[(w.first+i)%len(w.slots)]
}

// Len returns number of timestamps currently held
func (w *Window) Len() int {
	return w.size
}

// Capacity returns the configured capacity
func (w *Window) Capacity() int {
	return w.capacity
}

// SetCapacity changes the capacity. Existing contents are left as they
// are; the next Push truncates from the head if needed.
func (w *Window) SetCapacity(capacity int) {
	w.capacity = capacity
}

// Timestamps returns a copy of the contents, oldest first
func (w *Window) Timestamps() []time.Time {
	out := make([]time.Time, w.size)
	for i := range out {
		out[i] = w.at(i)
	}
	return out
}

// Intervals yields the gaps in seconds between consecutive timestamps,
// oldest first. Yields nothing with fewer than two timestamps.
func (w *Window) Intervals() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for i := 0; i+1 < w.size; i++ {
			if !yield(w.at(i + 1).Sub(w.at(i)).Seconds()) {
				return
			}
		}
	}
}
