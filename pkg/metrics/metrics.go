// Package metrics implements the observability hooks with Prometheus.
//
// A [Registry] owns its own prometheus.Registry so tests and the HTTP server
// never collide with the global default registry. Register it once at startup:
//
//	reg := metrics.NewRegistry()
//	observability.SetBatchHooks(reg)
//	observability.SetIconHooks(reg)
//	observability.SetHTTPHooks(reg)
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WrongGitUsername/gns3-snapshot/pkg/observability"
)

const namespace = "gns3_snapshot"

// Registry holds all metrics for the application.
type Registry struct {
	// Batch metrics
	BatchesTotal     prometheus.Counter
	BatchDuration    prometheus.Histogram
	BatchWorkers     prometheus.Gauge
	JobsInFlight     prometheus.Gauge
	JobsTotal        *prometheus.CounterVec
	JobDuration      prometheus.Histogram
	StageDuration    *prometheus.HistogramVec
	StageErrorsTotal *prometheus.CounterVec

	// Icon cache metrics
	IconLookupsTotal  *prometheus.CounterVec
	IconFetchesTotal  *prometheus.CounterVec
	IconFetchDuration *prometheus.HistogramVec

	// Topology server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrorsTotal     *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	_ observability.BatchHooks = (*Registry)(nil)
	_ observability.IconHooks  = (*Registry)(nil)
	_ observability.HTTPHooks  = (*Registry)(nil)
)

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry used by the CLI.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initBatchMetrics()
	r.initIconMetrics()
	r.initHTTPMetrics()
	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// WriteTextfile writes the registry to path for the node_exporter textfile
// collector. The file is written atomically.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func (r *Registry) initBatchMetrics() {
	f := promauto.With(r.registry)

	r.BatchesTotal = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_total",
		Help:      "Total number of batch runs",
	})
	r.BatchDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Wall-clock duration of batch runs",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
	r.BatchWorkers = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "batch_workers",
		Help:      "Worker count of the most recent batch run",
	})
	r.JobsInFlight = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jobs_in_flight",
		Help:      "Thumbnail jobs currently being processed",
	})
	r.JobsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_total",
		Help:      "Thumbnail jobs by outcome",
	}, []string{"status", "code"})
	r.JobDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of single thumbnail jobs",
		Buckets:   prometheus.DefBuckets,
	})
	r.StageDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of job stages",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})
	r.StageErrorsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stage_errors_total",
		Help:      "Failed job stages",
	}, []string{"stage"})
}

func (r *Registry) initIconMetrics() {
	f := promauto.With(r.registry)

	r.IconLookupsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "icon_lookups_total",
		Help:      "Icon cache lookups by result (hit, shared, unavailable)",
	}, []string{"result"})
	r.IconFetchesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "icon_fetches_total",
		Help:      "Icon fetch attempts by source tier and status",
	}, []string{"source", "status"})
	r.IconFetchDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "icon_fetch_duration_seconds",
		Help:      "Icon fetch latency by source tier",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
}

func (r *Registry) initHTTPMetrics() {
	f := promauto.With(r.registry)

	r.HTTPRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_client_requests_total",
		Help:      "Outgoing HTTP requests by host and status",
	}, []string{"method", "host", "status"})
	r.HTTPRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_client_request_duration_seconds",
		Help:      "Outgoing HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "host"})
	r.HTTPErrorsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_client_errors_total",
		Help:      "Outgoing HTTP requests that failed without a response",
	}, []string{"method", "host"})
}

// OnBatchStart implements observability.BatchHooks.
func (r *Registry) OnBatchStart(_ context.Context, _ string, _, workers int) {
	r.BatchesTotal.Inc()
	r.BatchWorkers.Set(float64(workers))
}

// OnBatchComplete implements observability.BatchHooks.
func (r *Registry) OnBatchComplete(_ context.Context, _ string, _, _ int, duration time.Duration) {
	r.BatchDuration.Observe(duration.Seconds())
}

// OnJobStart implements observability.BatchHooks.
func (r *Registry) OnJobStart(context.Context, string) {
	r.JobsInFlight.Inc()
}

// OnJobComplete implements observability.BatchHooks.
func (r *Registry) OnJobComplete(_ context.Context, _ string, code string, duration time.Duration) {
	r.JobsInFlight.Dec()
	status := "success"
	if code != "" {
		status = "failure"
	}
	r.JobsTotal.WithLabelValues(status, code).Inc()
	r.JobDuration.Observe(duration.Seconds())
}

// OnStage implements observability.BatchHooks.
func (r *Registry) OnStage(_ context.Context, stage string, duration time.Duration, err error) {
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		r.StageErrorsTotal.WithLabelValues(stage).Inc()
	}
}

// OnIconHit implements observability.IconHooks.
func (r *Registry) OnIconHit(context.Context) {
	r.IconLookupsTotal.WithLabelValues("hit").Inc()
}

// OnIconShared implements observability.IconHooks.
func (r *Registry) OnIconShared(context.Context) {
	r.IconLookupsTotal.WithLabelValues("shared").Inc()
}

// OnIconUnavailable implements observability.IconHooks.
func (r *Registry) OnIconUnavailable(context.Context) {
	r.IconLookupsTotal.WithLabelValues("unavailable").Inc()
}

// OnIconFetch implements observability.IconHooks.
func (r *Registry) OnIconFetch(_ context.Context, source string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "miss"
	}
	r.IconFetchesTotal.WithLabelValues(source, status).Inc()
	r.IconFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// OnRequest implements observability.HTTPHooks. Requests are counted on
// completion, so nothing is recorded here.
func (r *Registry) OnRequest(context.Context, string, string, string) {}

// OnResponse implements observability.HTTPHooks.
func (r *Registry) OnResponse(_ context.Context, method, host, _ string, statusCode int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, host, statusClass(statusCode)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, host).Observe(duration.Seconds())
}

// OnError implements observability.HTTPHooks.
func (r *Registry) OnError(_ context.Context, method, host, _ string, _ error) {
	r.HTTPErrorsTotal.WithLabelValues(method, host).Inc()
}

// statusClass collapses status codes to "2xx", "4xx", ... to bound label cardinality.
func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
