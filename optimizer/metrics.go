package optimizer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// solverMetrics mirrors the CounterVec/HistogramVec-per-concern shape the
// teacher's monitoring service uses, scoped down to what the solver itself
// can usefully report: attempts, outcomes, and timing per room.
type solverMetrics struct {
	solvesTotal      *prometheus.CounterVec
	solveDuration    *prometheus.HistogramVec
	nodesExplored    *prometheus.HistogramVec
	infeasibleTotal  *prometheus.CounterVec
	timeoutTotal     *prometheus.CounterVec
	fallbackRetries  *prometheus.CounterVec
}

// newSolverMetrics constructs and registers the optimizer's metrics against
// reg. Passing nil creates a fresh private registry, so independent Solver
// instances (and tests) never collide over metric names.
func newSolverMetrics(reg prometheus.Registerer) *solverMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &solverMetrics{
		solvesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "layoutengine",
			Subsystem: "optimizer",
			Name:      "solves_total",
			Help:      "Number of room solve attempts, by outcome.",
		}, []string{"outcome"}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "layoutengine",
			Subsystem: "optimizer",
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock duration of a room solve.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"room"}),
		nodesExplored: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "layoutengine",
			Subsystem: "optimizer",
			Name:      "nodes_explored",
			Help:      "Branch-and-bound nodes explored per room solve.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}, []string{"room"}),
		infeasibleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "layoutengine",
			Subsystem: "optimizer",
			Name:      "infeasible_total",
			Help:      "Number of room solves that proved infeasible.",
		}, []string{"room"}),
		timeoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "layoutengine",
			Subsystem: "optimizer",
			Name:      "timeout_total",
			Help:      "Number of room solves that hit the time or node budget without a feasible incumbent.",
		}, []string{"room"}),
		fallbackRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "layoutengine",
			Subsystem: "optimizer",
			Name:      "fallback_retries_total",
			Help:      "Number of times distance constraints were dropped and the room re-solved.",
		}, []string{"room"}),
	}

	reg.MustRegister(
		m.solvesTotal,
		m.solveDuration,
		m.nodesExplored,
		m.infeasibleTotal,
		m.timeoutTotal,
		m.fallbackRetries,
	)

	return m
}
