// Package metrics exposes reconcile outcomes as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/fentz26/labtrack/internal/api"
	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/reconcile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements reconcile.Observer on a private registry.
type Collector struct {
	registry *prometheus.Registry

	fetches   *prometheus.CounterVec
	duration  prometheus.Histogram
	samples   *prometheus.GaugeVec
	partition *prometheus.GaugeVec
	completed prometheus.Counter
	online    prometheus.Gauge
	lastSync  prometheus.Gauge
}

// New creates a Collector with all metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labtrack_fetches_total",
			Help: "Sample collection fetches by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "labtrack_fetch_duration_seconds",
			Help:    "Time spent fetching the sample collection.",
			Buckets: prometheus.DefBuckets,
		}),
		samples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "labtrack_samples",
			Help: "Samples in the last fetched collection by status.",
		}, []string{"status"}),
		partition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "labtrack_partition_size",
			Help: "Samples per dashboard partition.",
		}, []string{"partition"}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labtrack_samples_completed_total",
			Help: "Samples observed moving to Results Available.",
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "labtrack_api_online",
			Help: "1 if the last fetch succeeded.",
		}),
		lastSync: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "labtrack_last_sync_timestamp_seconds",
			Help: "Unix time of the last successful fetch.",
		}),
	}
	c.registry.MustRegister(c.fetches, c.duration, c.samples, c.partition, c.completed, c.online, c.lastSync)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveFetch implements reconcile.Observer.
func (c *Collector) ObserveFetch(err error, took time.Duration) {
	c.duration.Observe(took.Seconds())
	c.fetches.WithLabelValues(fetchResult(err)).Inc()
}

// ObserveSnapshot implements reconcile.Observer.
func (c *Collector) ObserveSnapshot(s reconcile.Snapshot) {
	if !s.Online() {
		c.online.Set(0)
		return
	}
	c.online.Set(1)
	c.lastSync.Set(float64(s.SyncedAt.Unix()))

	counts := make(map[models.Status]int)
	for _, st := range models.Statuses {
		counts[st] = 0
	}
	for _, rec := range s.All {
		counts[rec.Status]++
	}
	c.samples.Reset()
	for st, n := range counts {
		c.samples.WithLabelValues(string(st)).Set(float64(n))
	}
	c.partition.WithLabelValues("active").Set(float64(s.Active.Len()))
	c.partition.WithLabelValues("done").Set(float64(s.Done.Len()))
}

// ObserveCompleted implements reconcile.Observer.
func (c *Collector) ObserveCompleted(n int) {
	c.completed.Add(float64(n))
}

func fetchResult(err error) string {
	var se *api.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, api.ErrUnreachable):
		return "unreachable"
	case errors.Is(err, api.ErrMalformed):
		return "malformed"
	case errors.As(err, &se):
		return "http_error"
	default:
		return "error"
	}
}
