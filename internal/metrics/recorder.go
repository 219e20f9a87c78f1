// Package metrics exposes Prometheus instrumentation for the generation
// pipeline on a registry owned by the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"promptpix/internal/domain"
	providerimage "promptpix/internal/providers/image"
)

const namespace = "promptpix"

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultSkipped = "skipped"
)

// Recorder counts adapter attempts and whole generations.
type Recorder struct {
	registry *prometheus.Registry

	attemptsStarted *prometheus.CounterVec
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	generations     *prometheus.CounterVec
	inFlight        prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		attemptsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_started_total",
			Help:      "Adapter invocations started, partitioned by provider.",
		}, []string{"provider"}),
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Finished adapter invocations, partitioned by provider, result and error kind.",
		}, []string{"provider", "result", "kind"}),
		attemptDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_attempt_duration_seconds",
			Help:      "Wall time spent in a single adapter invocation.",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 180},
		}, []string{"provider"}),
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Completed generations, partitioned by winning provider and result.",
		}, []string{"provider", "result"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generations_in_flight",
			Help:      "Generations currently running.",
		}),
	}
}

func (r *Recorder) AttemptStarted(_ int, provider string) {
	r.attemptsStarted.WithLabelValues(provider).Inc()
}

func (r *Recorder) AttemptFinished(a providerimage.Attempt) {
	result, kind := resultSuccess, ""
	switch {
	case a.Skipped:
		result = resultSkipped
	case a.Err != nil:
		result = resultFailure
		kind = string(domain.AsClassified(a.Err).Kind)
	}
	r.attempts.WithLabelValues(a.Provider, result, kind).Inc()
	if !a.Skipped {
		r.attemptDuration.WithLabelValues(a.Provider).Observe(a.Elapsed.Seconds())
	}
}

// GenerationStarted and GenerationFinished bracket one orchestrator run.
func (r *Recorder) GenerationStarted() { r.inFlight.Inc() }

func (r *Recorder) GenerationFinished(provider string, err error) {
	r.inFlight.Dec()
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	r.generations.WithLabelValues(provider, result).Inc()
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

var _ providerimage.Observer = (*Recorder)(nil)
