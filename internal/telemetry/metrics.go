package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/propeller/internal/domain"
)

const namespace = "propeller"

// Metrics — Prometheus метрики runs и stages.
//
// Реализует propeller.Observer:
//
//	propeller_runs_total{phase,status}
//	propeller_runs_in_progress{phase}
//	propeller_run_duration_seconds{phase}
//	propeller_stages_total{kind,stage,status}
//	propeller_stage_duration_seconds{kind,stage}
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	runsActive    *prometheus.GaugeVec
	runDuration   *prometheus.HistogramVec
	stagesTotal   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// NewMetrics регистрирует метрики в reg.
// nil reg — prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by phase and status",
		}, []string{"phase", "status"}),

		runsActive: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_progress",
			Help:      "Runs currently executing",
		}, []string{"phase"}),

		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Run duration",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"phase"}),

		stagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_total",
			Help:      "Finished stages by kind, name and status",
		}, []string{"kind", "stage", "status"}),

		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Stage duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "stage"}),
	}
}

// RunStarted увеличивает число активных runs.
func (m *Metrics) RunStarted(_ context.Context, run *domain.Run) {
	m.runsActive.WithLabelValues(string(run.Phase)).Inc()
}

// StageStarted ничего не делает: stage учитывается по завершении.
func (m *Metrics) StageStarted(context.Context, *domain.Run, *domain.StageResult) {}

// StageFinished учитывает завершённый stage.
func (m *Metrics) StageFinished(_ context.Context, _ *domain.Run, stage *domain.StageResult) {
	kind := stage.Kind.String()
	m.stagesTotal.WithLabelValues(kind, stage.Name, string(stage.Status)).Inc()
	m.stageDuration.WithLabelValues(kind, stage.Name).Observe(stage.Duration().Seconds())
}

// RunFinished учитывает завершённый run.
func (m *Metrics) RunFinished(_ context.Context, run *domain.Run) {
	phase := string(run.Phase)
	m.runsActive.WithLabelValues(phase).Dec()
	m.runsTotal.WithLabelValues(phase, string(run.Status)).Inc()
	m.runDuration.WithLabelValues(phase).Observe(run.Duration().Seconds())
}
