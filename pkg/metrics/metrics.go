package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Client represents a metrics collection interface
// This allows us to swap implementations (Prometheus, StatsD, etc.)
type Client interface {
	// Count tracks a counter metric
	Count(name string, value int64, tags []string, rate float64)
	
	// Gauge tracks a gauge metric (current value)
	Gauge(name string, value float64, tags []string, rate float64)
	
	// Histogram tracks the statistical distribution of a set of values
	Histogram(name string, value float64, tags []string, rate float64)
	
	// Timing tracks a timing metric
	Timing(name string, value time.Duration, tags []string, rate float64)
	
	// Close shuts down the metrics client
	Close() error
}

// NoopClient is a metrics client that does nothing
// Useful for development or when metrics are disabled
type NoopClient struct{}

// NewNoopClient creates a new no-op metrics client
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

// Count implements Client.Count
func (c *NoopClient) Count(name string, value int64, tags []string, rate float64) {}

// Gauge implements Client.Gauge
func (c *NoopClient) Gauge(name string, value float64, tags []string, rate float64) {}

// Histogram implements Client.Histogram
func (c *NoopClient) Histogram(name string, value float64, tags []string, rate float64) {}

// Timing implements Client.Timing
func (c *NoopClient) Timing(name string, value time.Duration, tags []string, rate float64) {}

// Close implements Client.Close
func (c *NoopClient) Close() error {
	return nil
}

// PrometheusClient is a metrics.Client backed by the default
// Prometheus registry. Each call site's tag list is collapsed into a
// single "tags" label (comma-joined) rather than dynamic label names,
// since Prometheus vectors require a fixed label set known at
// registration time while this interface accepts an arbitrary slice
// per call.
type PrometheusClient struct {
	counters   *prometheus.CounterVec
	gauges     *prometheus.GaugeVec
	histograms *prometheus.HistogramVec
}

// NewPrometheusClient constructs a PrometheusClient and registers its
// vectors with the default registry. Safe to call once per process;
// registering twice panics, same as any other Prometheus collector.
func NewPrometheusClient() *PrometheusClient {
	c := &PrometheusClient{
		counters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triagedesk_counter_total",
			Help: "Generic counter metrics emitted by the triage decision service.",
		}, []string{"name", "tags"}),
		gauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "triagedesk_gauge",
			Help: "Generic gauge metrics emitted by the triage decision service.",
		}, []string{"name", "tags"}),
		histograms: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triagedesk_histogram",
			Help:    "Generic histogram metrics emitted by the triage decision service.",
			Buckets: prometheus.DefBuckets,
		}, []string{"name", "tags"}),
	}

	prometheus.MustRegister(c.counters, c.gauges, c.histograms)
	return c
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return strings.Join(tags, ",")
}

// Count implements Client.Count. rate is accepted for interface
// compatibility but Prometheus counters are not sampled client-side.
func (c *PrometheusClient) Count(name string, value int64, tags []string, rate float64) {
	c.counters.WithLabelValues(name, joinTags(tags)).Add(float64(value))
}

// Gauge implements Client.Gauge.
func (c *PrometheusClient) Gauge(name string, value float64, tags []string, rate float64) {
	c.gauges.WithLabelValues(name, joinTags(tags)).Set(value)
}

// Histogram implements Client.Histogram.
func (c *PrometheusClient) Histogram(name string, value float64, tags []string, rate float64) {
	c.histograms.WithLabelValues(name, joinTags(tags)).Observe(value)
}

// Timing implements Client.Timing by recording the duration, in
// milliseconds, on the same histogram vector used for Histogram.
func (c *PrometheusClient) Timing(name string, value time.Duration, tags []string, rate float64) {
	c.histograms.WithLabelValues(name, joinTags(tags)).Observe(float64(value.Milliseconds()))
}

// Close implements Client.Close. Prometheus collectors are unregistered
// on process exit implicitly; there is nothing to flush.
func (c *PrometheusClient) Close() error {
	return nil
}
