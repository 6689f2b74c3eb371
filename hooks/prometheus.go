package hooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements core.MetricsCollector over a Prometheus
// registerer. Metric names carry the photonorm_ prefix.
type PrometheusMetrics struct {
	jobsTotal         *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
	stageDuration     *prometheus.HistogramVec
	degradationsTotal *prometheus.CounterVec
	activeJobs        prometheus.Gauge
	outputBytes       prometheus.Histogram
}

// NewPrometheusMetrics builds and registers the collectors on reg. Pass
// prometheus.DefaultRegisterer to use the process-global registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photonorm_jobs_total",
			Help: "Completed pipeline invocations by final status.",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "photonorm_job_duration_seconds",
			Help:    "Total processing duration per invocation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "photonorm_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		degradationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "photonorm_degradations_total",
			Help: "Soft failures absorbed by stage.",
		}, []string{"stage"}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "photonorm_active_jobs",
			Help: "Invocations currently in flight.",
		}),
		outputBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "photonorm_output_bytes",
			Help:    "Encoded output size in bytes.",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 8),
		}),
	}
	reg.MustRegister(
		m.jobsTotal,
		m.jobDuration,
		m.stageDuration,
		m.degradationsTotal,
		m.activeJobs,
		m.outputBytes,
	)
	return m
}

func (m *PrometheusMetrics) JobStarted() { m.activeJobs.Inc() }

func (m *PrometheusMetrics) JobFinished(status string, total time.Duration, outputBytes int64) {
	m.activeJobs.Dec()
	m.jobsTotal.WithLabelValues(status).Inc()
	m.jobDuration.WithLabelValues(status).Observe(total.Seconds())
	if outputBytes > 0 {
		m.outputBytes.Observe(float64(outputBytes))
	}
}

func (m *PrometheusMetrics) RecordStageDuration(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordDegradation(stage string) {
	m.degradationsTotal.WithLabelValues(stage).Inc()
}
