package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_verify"

// Metrics holds the Prometheus counters, histograms, and gauges for the verification service.
type Metrics struct {
	ServiceRunning prometheus.Gauge

	// Verification metrics.
	Verifications        *prometheus.CounterVec // labels: outcome={success,invalid_input,location_not_found,...}
	Verdicts             *prometheus.CounterVec // labels: class={SIGNIFICANT_RAIN,MINOR_OR_NONE}
	VerificationDuration prometheus.Histogram
	StageFailures        *prometheus.CounterVec // labels: stage

	// Upstream metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: upstream={geocoding,archive}, outcome={success,error,empty,rejected}
	UpstreamDuration *prometheus.HistogramVec // labels: upstream
	BreakerState     *prometheus.GaugeVec     // labels: upstream; 0 closed, 1 half-open, 2 open

	// Publishing metrics.
	ReportsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ServiceRunning,
		m.Verifications,
		m.Verdicts,
		m.VerificationDuration,
		m.StageFailures,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.BreakerState,
		m.ReportsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics that are not registered with any
// registry, so each test can build its own without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewLocalMetrics creates unregistered Metrics for one-shot commands that
// expose no /metrics endpoint.
func NewLocalMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ServiceRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_running",
			Help:      "1 when the service is accepting requests, 0 when shut down.",
		}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verification runs by terminal outcome.",
		}, []string{"outcome"}),
		Verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Successful verifications by verdict class.",
		}, []string{"class"}),
		VerificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_duration_seconds",
			Help:      "Duration of a complete verification run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Verification failures by the stage that failed.",
		}, []string{"stage"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Open-Meteo API requests by upstream and outcome.",
		}, []string{"upstream", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Open-Meteo API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"upstream"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per upstream: 0 closed, 1 half-open, 2 open.",
		}, []string{"upstream"}),
		ReportsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Report events written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
