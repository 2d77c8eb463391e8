package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	EventsConsumed    prometheus.Counter
	DispatchOutcomes  *prometheus.CounterVec
	DLQPublished      prometheus.Counter
	DLQPublishFailed  prometheus.Counter
	TriggerLatency    prometheus.Histogram
	PipelineLatency   prometheus.Histogram
	ResolveCacheHits  prometheus.Counter
	ResolveCacheMiss  prometheus.Counter
	LogUpsertFailures prometheus.Counter
	EndpointLatency   *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EventsConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_events_consumed_total",
			Help: "Total number of domain events consumed",
		}),
		DispatchOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_dispatch_outcomes_total",
			Help: "Total dispatch pipeline terminal outcomes, labeled by status",
		}, []string{"status"}),
		DLQPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_dlq_published_total",
			Help: "Total number of events routed to the dead-letter topic",
		}),
		DLQPublishFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_dlq_publish_failures_total",
			Help: "Total number of failed dead-letter publishes",
		}),
		TriggerLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_trigger_latency_seconds",
			Help:    "Latency of provider trigger calls in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		PipelineLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_pipeline_latency_seconds",
			Help:    "End-to-end dispatch pipeline latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		ResolveCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_resolve_cache_hits_total",
			Help: "Total number of binding resolutions served from cache",
		}),
		ResolveCacheMiss: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_resolve_cache_misses_total",
			Help: "Total number of binding resolutions that fell through to the store",
		}),
		LogUpsertFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relay_dispatch_log_upsert_failures_total",
			Help: "Total number of best-effort dispatch log writes that failed",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_endpoint_latency_seconds",
			Help:    "Latency of HTTP endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// IncDispatchOutcome increments the outcome counter for a terminal status.
func (m *Metrics) IncDispatchOutcome(status string) {
	m.DispatchOutcomes.WithLabelValues(status).Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
