package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/visualmatch/client/internal/domain"
)

// Recorder exports workflow events as Prometheus metrics on a private registry
type Recorder struct {
	registry  *prometheus.Registry
	outcomes  *prometheus.CounterVec
	duration  prometheus.Histogram
	discarded prometheus.Counter
	previews  prometheus.Gauge
}

// NewRecorder creates a recorder and registers its collectors
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visualmatch",
			Name:      "search_outcomes_total",
			Help:      "Completed searches by classified outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "visualmatch",
			Name:      "search_duration_seconds",
			Help:      "Time from request submission to classified outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visualmatch",
			Name:      "search_discarded_total",
			Help:      "Search responses dropped because the selection changed while in flight.",
		}),
		previews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "visualmatch",
			Name:      "previews_live",
			Help:      "Preview resources currently held.",
		}),
	}

	r.registry.MustRegister(r.outcomes, r.duration, r.discarded, r.previews)
	return r
}

func (r *Recorder) ObserveOutcome(kind domain.OutcomeKind, elapsed time.Duration) {
	r.outcomes.WithLabelValues(string(kind)).Inc()
	r.duration.Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveDiscarded() {
	r.discarded.Inc()
}

func (r *Recorder) PreviewCreated() {
	r.previews.Inc()
}

func (r *Recorder) PreviewReleased() {
	r.previews.Dec()
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
