package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons recorded on refused drops.
const (
	ReasonMalformed  = "malformed"
	ReasonPastDate   = "past_date"
	ReasonUnknownJob = "unknown_job"
)

var (
	once sync.Once

	dropsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_drops_applied_total",
		Help: "Drops that mutated the job collection, by transition",
	}, []string{"transition"})
	dropsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_drops_rejected_total",
		Help: "Drops refused before any mutation, by reason",
	}, []string{"reason"})
)

// DropApplied records a committed scheduling transition.
func DropApplied(transition string) {
	dropsApplied.WithLabelValues(transition).Inc()
}

// DropRejected records a refused drop.
func DropRejected(reason string) {
	dropsRejected.WithLabelValues(reason).Inc()
}

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(dropsApplied, dropsRejected)
	})
	return promhttp.Handler()
}
