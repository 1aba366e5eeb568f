// Package telemetry builds the process logger and the Prometheus metrics
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "particlelife"

// Metrics are the engine and recorder instruments. The recorder accepts a
// nil *Metrics; the engine makes its own registry when given none.
type Metrics struct {
	TickDuration      prometheus.Histogram
	Ticks             prometheus.Counter
	Snapshots         prometheus.Counter
	Particles         prometheus.Gauge
	NumericSuppressed *prometheus.CounterVec
	NumericFaults     prometheus.Counter
	State             prometheus.Gauge
	SeedLoads         *prometheus.CounterVec
	Recorded          prometheus.Counter
}

// NewMetrics registers the instruments with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// tick durations sit well under the 30 ms cadence unless the
		// population is near the cap
		TickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Time spent computing one simulation tick",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.03, 0.05, 0.1, 0.25},
		}),
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Simulation ticks completed",
		}),
		Snapshots: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "snapshots_published_total",
			Help:      "Snapshots handed to consumers",
		}),
		Particles: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "particles",
			Help:      "Particles in the running simulation",
		}),
		NumericSuppressed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "numeric_suppressed_total",
			Help:      "Non-finite values replaced under the suppress policy",
		}, []string{"stage"}),
		NumericFaults: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "numeric_faults_total",
			Help:      "Ticks aborted under the strict numeric policy",
		}),
		State: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "state",
			Help:      "Loop state: 0 idle, 1 running, 2 paused",
		}),
		SeedLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "seed_loads_total",
			Help:      "Seed load attempts by outcome",
		}, []string{"outcome"}),
		Recorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "samples_total",
			Help:      "Feature samples written to storage",
		}),
	}
}
