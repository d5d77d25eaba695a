package observability

import (
	"context"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by engine hooks.
type Metrics struct {
	Runs          *prometheus.CounterVec
	Records       *prometheus.CounterVec
	BlocksSkipped *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seedbed_runs_total",
				Help: "Total number of recipe runs by final status",
			},
			[]string{"status"},
		),
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seedbed_records_total",
				Help: "Total number of generated records",
			},
			[]string{"object"},
		),
		BlocksSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seedbed_blocks_skipped_total",
				Help: "just_once blocks skipped because their session already ran them",
			},
			[]string{"object"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seedbed_run_duration_seconds",
				Help:    "Duration of recipe runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
	}
	for _, c := range []prometheus.Collector{m.Runs, m.Records, m.BlocksSkipped, m.RunDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			status := string(e.Status)
			m.Runs.WithLabelValues(status).Inc()
			m.RunDuration.WithLabelValues(status).Observe(e.Duration.Seconds())
		},
		OnBlockSkip: func(ctx context.Context, e *domain.BlockEvent) {
			m.BlocksSkipped.WithLabelValues(e.Object).Inc()
		},
		OnRecord: func(ctx context.Context, e *domain.RecordEvent) {
			m.Records.WithLabelValues(e.Record.ObjectType).Inc()
		},
	}
}
