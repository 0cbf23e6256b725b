// Package metrics exports matching engine metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/kozaktomas/biomatch/internal/matching"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements matching.Recorder with Prometheus collectors.
type Collector struct {
	registry       *prometheus.Registry
	opLatency      *prometheus.HistogramVec
	matches        *prometheus.CounterVec
	bestSimilarity prometheus.Histogram
	enrollments    *prometheus.CounterVec
	deletes        *prometheus.CounterVec
	clears         *prometheus.CounterVec
	enrolled       prometheus.Gauge
}

// NewCollector registers all collectors on a fresh registry together with the
// Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "biomatch_operation_duration_seconds",
			Help:    "Latency of matching engine operations",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"op"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biomatch_matches_total",
			Help: "Match requests by result",
		}, []string{"result"}),
		bestSimilarity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "biomatch_match_best_similarity_percent",
			Help:    "Best similarity found per match request",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biomatch_enrollments_total",
			Help: "Enrollment attempts by outcome",
		}, []string{"outcome"}),
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biomatch_deletes_total",
			Help: "Delete requests by outcome",
		}, []string{"outcome"}),
		clears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biomatch_clears_total",
			Help: "Clear requests by outcome",
		}, []string{"outcome"}),
		enrolled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "biomatch_enrolled_templates",
			Help: "Number of enrolled templates",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.opLatency,
		c.matches,
		c.bestSimilarity,
		c.enrollments,
		c.deletes,
		c.clears,
		c.enrolled,
	)
	return c
}

// Registry returns the registry holding all collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordMatch implements matching.Recorder.
func (c *Collector) RecordMatch(result matching.MatchResult, duration time.Duration, err error) {
	c.opLatency.WithLabelValues("match").Observe(duration.Seconds())
	switch {
	case err != nil:
		c.matches.WithLabelValues(matching.Outcome(err)).Inc()
		return
	case result.Matched:
		c.matches.WithLabelValues("matched").Inc()
	default:
		c.matches.WithLabelValues("no_match").Inc()
	}
	c.bestSimilarity.Observe(result.BestSimilarity)
}

// RecordEnroll implements matching.Recorder.
func (c *Collector) RecordEnroll(duration time.Duration, err error) {
	c.opLatency.WithLabelValues("enroll").Observe(duration.Seconds())
	c.enrollments.WithLabelValues(matching.Outcome(err)).Inc()
}

// RecordDelete implements matching.Recorder.
func (c *Collector) RecordDelete(removed bool, err error) {
	outcome := matching.Outcome(err)
	if err == nil && !removed {
		outcome = "absent"
	}
	c.deletes.WithLabelValues(outcome).Inc()
}

// RecordClear implements matching.Recorder.
func (c *Collector) RecordClear(_ int, err error) {
	c.clears.WithLabelValues(matching.Outcome(err)).Inc()
}

// SetEnrolled implements matching.Recorder.
func (c *Collector) SetEnrolled(n int) {
	c.enrolled.Set(float64(n))
}

var _ matching.Recorder = (*Collector)(nil)
