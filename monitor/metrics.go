// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	reasonTooFewEvents = "too_few_events"
	reasonZeroInterval = "zero_interval"
)

type registryMetrics struct {
	monitored        prometheus.Gauge
	events           prometheus.Counter
	paceUpdates      prometheus.Counter
	throttledUpdates prometheus.Counter
	undefinedOutputs *prometheus.CounterVec
	applyFailures    prometheus.Counter
}

// newRegistryMetrics registers the collectors with reg, a nil reg
// yields working but unregistered collectors
func newRegistryMetrics(reg prometheus.Registerer) *registryMetrics {
	m := &registryMetrics{
		monitored: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "slowmode_monitored_entities",
			Help: "Number of channels with an active controller in this process.",
		}),
		events: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "slowmode_events_total",
			Help: "Total number of events pushed into controller windows.",
		}),
		paceUpdates: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "slowmode_pace_updates_total",
			Help: "Total number of slowmode changes pushed to the host.",
		}),
		throttledUpdates: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "slowmode_pace_updates_throttled_total",
			Help: "Total number of slowmode changes the host dropped for lack of edit budget.",
		}),
		undefinedOutputs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "slowmode_undefined_outputs_total",
			Help: "Total number of events after which the controller had no recommendation.",
		}, []string{"reason"}),
		applyFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "slowmode_apply_failures_total",
			Help: "Total number of failed host reads or writes of the slowmode.",
		}),
	}
	// pre-create series so they are exported at zero
	m.undefinedOutputs.WithLabelValues(reasonTooFewEvents)
	m.undefinedOutputs.WithLabelValues(reasonZeroInterval)
	return m
}
