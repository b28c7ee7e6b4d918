// Package instrument decorates a Repository with Prometheus metrics.
package instrument

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

var _ domain.Repository = (*Repository)(nil)

// Repository records call counts, failures and latency per operation.
type Repository struct {
	next     domain.Repository
	calls    *prometheus.CounterVec
	failures *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	records  prometheus.Gauge
}

// Wrap registers the collectors on reg and returns the decorated repository.
func Wrap(next domain.Repository, backend string, reg prometheus.Registerer) (*Repository, error) {
	labels := prometheus.Labels{"backend": backend}
	r := &Repository{
		next: next,
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "analyses_repository_calls_total",
			Help:        "Repository calls by operation.",
			ConstLabels: labels,
		}, []string{"op"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "analyses_repository_failures_total",
			Help:        "Failed repository calls by operation.",
			ConstLabels: labels,
		}, []string{"op"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "analyses_repository_duration_seconds",
			Help:        "Repository call latency.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"op"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "analyses_records",
			Help:        "Records returned by the last successful list.",
			ConstLabels: labels,
		}),
	}
	for _, c := range []prometheus.Collector{r.calls, r.failures, r.latency, r.records} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Repository) observe(op string, start time.Time, err error) {
	r.calls.WithLabelValues(op).Inc()
	r.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		r.failures.WithLabelValues(op).Inc()
	}
}

func (r *Repository) List(ctx context.Context) ([]domain.Analysis, error) {
	start := time.Now()
	out, err := r.next.List(ctx)
	r.observe("list", start, err)
	if err == nil {
		r.records.Set(float64(len(out)))
	}
	return out, err
}

func (r *Repository) Create(ctx context.Context, f domain.Fields) error {
	start := time.Now()
	err := r.next.Create(ctx, f)
	r.observe("create", start, err)
	return err
}

func (r *Repository) Update(ctx context.Context, id domain.ID, f domain.Fields) error {
	start := time.Now()
	err := r.next.Update(ctx, id, f)
	r.observe("update", start, err)
	return err
}

func (r *Repository) Delete(ctx context.Context, id domain.ID) error {
	start := time.Now()
	err := r.next.Delete(ctx, id)
	r.observe("delete", start, err)
	return err
}
