// Package metrics instruments solve calls with Prometheus counters and
// histograms, the way Karpenter's provisioning controllers instrument
// scheduling runs. Metrics are an ambient, non-core concern: the core
// packages return plain Go values, and this package wraps a call to
// pkg/solver.Solve from the outside.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kestrel-systems/harmonysched/pkg/builder"
	"github.com/kestrel-systems/harmonysched/pkg/solver"
)

const namespace = "harmonysched"

// Recorder holds the Prometheus collectors registered for solve
// instrumentation.
type Recorder struct {
	solveDuration    prometheus.Histogram
	solveOutcomes    *prometheus.CounterVec
	tardinessMinutes prometheus.Gauge
	changeovers      prometheus.Gauge
}

// NewRecorder creates and registers a Recorder's collectors against reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		solveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock duration of a solve call.",
			Buckets:   prometheus.DefBuckets,
		}),
		solveOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solve_outcomes_total",
			Help:      "Count of solve calls by terminal outcome.",
		}, []string{"outcome"}),
		tardinessMinutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_solve_tardiness_minutes",
			Help:      "Total tardiness minutes of the most recent successful solve.",
		}),
		changeovers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_solve_changeovers",
			Help:      "Changeover count of the most recent successful solve.",
		}),
	}
	reg.MustRegister(r.solveDuration, r.solveOutcomes, r.tardinessMinutes, r.changeovers)
	return r
}

// InstrumentedSolve runs solver.Solve around model, recording duration and
// outcome, then returns exactly what solver.Solve returned.
func (r *Recorder) InstrumentedSolve(ctx context.Context, model *builder.Model, log *zap.Logger) (solver.Solution, error) {
	start := time.Now()
	sol, err := solver.Solve(ctx, model, log)
	r.solveDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		r.solveOutcomes.WithLabelValues("solved").Inc()
	default:
		r.solveOutcomes.WithLabelValues(outcomeLabel(err)).Inc()
	}
	return sol, err
}

// RecordKPIs updates the last-solve gauges from a successful solve's KPIs.
func (r *Recorder) RecordKPIs(tardinessMinutes, changeovers int) {
	r.tardinessMinutes.Set(float64(tardinessMinutes))
	r.changeovers.Set(float64(changeovers))
}

func outcomeLabel(err error) string {
	var infeasible *solver.InfeasibleError
	var internal *solver.InternalError
	switch {
	case errors.As(err, &infeasible):
		return "infeasible"
	case errors.As(err, &internal):
		return "internal_error"
	default:
		return "build_error"
	}
}
