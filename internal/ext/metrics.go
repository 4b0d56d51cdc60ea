package ext

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	simulationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trafficsim_simulations_total",
		Help: "Simulation runs by outcome.",
	}, []string{"outcome"})

	simulationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trafficsim_run_duration_seconds",
		Help:    "Wall-clock duration of simulation runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	lastRunAffectedEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trafficsim_last_run_affected_edges",
		Help: "Edges affected by construction in the most recent run.",
	})
)
