// Package metrics records render stage timings and storage lookups.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-view/pkg/template"
)

// Recorder receives render observations from views.
type Recorder interface {
	ObserveStage(kind template.Kind, elapsed time.Duration, err error)
	StorageLookup(hit bool)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveStage(template.Kind, time.Duration, error) {}
func (Nop) StorageLookup(bool)                               {}

// Prometheus exports observations as prometheus collectors.
type Prometheus struct {
	stages  *prometheus.HistogramVec
	lookups *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg. A nil reg
// uses the default registerer.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &Prometheus{
		stages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goview",
				Name:      "stage_duration_seconds",
				Help:      "Duration of view render stages.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind", "status"},
		),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goview",
				Name:      "storage_lookups_total",
				Help:      "Rendered template cache lookups by result.",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{p.stages, p.lookups} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ObserveStage(kind template.Kind, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.stages.WithLabelValues(kind.String(), status).Observe(elapsed.Seconds())
}

func (p *Prometheus) StorageLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.lookups.WithLabelValues(result).Inc()
}
