// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	FetchDuration *prometheus.HistogramVec
	FetchErrors   *prometheus.CounterVec
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec

	// Assessment metrics
	AssessmentsTotal   *prometheus.CounterVec
	AssessmentDuration prometheus.Histogram
	TokensScored       prometheus.Counter
	ScoringFallbacks   prometheus.Counter
	ScalingFallbacks   prometheus.Counter

	// Explanation metrics
	ExplanationsGenerated *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Stream metrics
	StreamClients      prometheus.Gauge
	StreamBroadcasts   prometheus.Counter
	StreamSendFailures prometheus.Counter

	// Health metrics
	LastSuccessfulAssessment prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_wallet_risk"
	}

	return &Metrics{
		// Ingestion metrics
		FetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch duration in seconds by data source",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed upstream fetches by data source",
		}, []string{"source"}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "cache_hits_total",
			Help:      "Total number of signal cache hits",
		}, []string{"signal"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "cache_misses_total",
			Help:      "Total number of signal cache misses",
		}, []string{"signal"}),

		// Assessment metrics
		AssessmentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "runs_total",
			Help:      "Total number of wallet assessments by status",
		}, []string{"status"}),
		AssessmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "duration_seconds",
			Help:      "End-to-end wallet assessment duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		TokensScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "tokens_scored_total",
			Help:      "Total number of token positions scored",
		}),
		ScoringFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "scoring_fallbacks_total",
			Help:      "Total number of scores produced by the heuristic fallback",
		}),
		ScalingFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "scaling_fallbacks_total",
			Help:      "Total number of model matrices passed through unscaled",
		}),

		// Explanation metrics
		ExplanationsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "explain",
			Name:      "generated_total",
			Help:      "Total number of explanations generated by source",
		}, []string{"source"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Stream metrics
		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Number of connected WebSocket clients",
		}),
		StreamBroadcasts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "broadcasts_total",
			Help:      "Total number of assessment broadcasts",
		}),
		StreamSendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "send_failures_total",
			Help:      "Total number of dropped client sends",
		}),

		// Health metrics
		LastSuccessfulAssessment: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_assessment_timestamp",
			Help:      "Unix timestamp of last successful assessment",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFetch records an upstream fetch attempt for a data source.
func RecordFetch(source string, seconds float64, err error) {
	DefaultMetrics.FetchDuration.WithLabelValues(source).Observe(seconds)
	if err != nil {
		DefaultMetrics.FetchErrors.WithLabelValues(source).Inc()
	}
}

// RecordCacheHit increments the cache hit counter for a signal.
func RecordCacheHit(signal string) {
	DefaultMetrics.CacheHits.WithLabelValues(signal).Inc()
}

// RecordCacheMiss increments the cache miss counter for a signal.
func RecordCacheMiss(signal string) {
	DefaultMetrics.CacheMisses.WithLabelValues(signal).Inc()
}

// RecordAssessment records a completed wallet assessment.
func RecordAssessment(status string, seconds float64) {
	DefaultMetrics.AssessmentsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.AssessmentDuration.Observe(seconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulAssessment.SetToCurrentTime()
	}
}

// RecordTokensScored adds to the scored token counter.
func RecordTokensScored(n int) {
	DefaultMetrics.TokensScored.Add(float64(n))
}

// RecordScoringFallback increments the heuristic fallback counter.
func RecordScoringFallback() {
	DefaultMetrics.ScoringFallbacks.Inc()
}

// RecordScalingFallback increments the unscaled matrix counter.
func RecordScalingFallback() {
	DefaultMetrics.ScalingFallbacks.Inc()
}

// RecordExplanation increments the explanation counter for a source.
func RecordExplanation(source string) {
	DefaultMetrics.ExplanationsGenerated.WithLabelValues(source).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// SetStreamClients updates the connected client gauge.
func SetStreamClients(n int) {
	DefaultMetrics.StreamClients.Set(float64(n))
}

// RecordStreamBroadcast increments the broadcast counter.
func RecordStreamBroadcast() {
	DefaultMetrics.StreamBroadcasts.Inc()
}

// RecordStreamSendFailure increments the dropped send counter.
func RecordStreamSendFailure() {
	DefaultMetrics.StreamSendFailures.Inc()
}
