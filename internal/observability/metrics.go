package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages
const (
	StageNormalize  = "normalizing"
	StageTranscribe = "transcribing"
	StageDiarize    = "diarizing"
	StageSummarize  = "summarizing"
)

var (
	// Job metrics
	activeJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetmins_active_jobs",
		Help: "Number of recordings currently being processed",
	})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetmins_jobs_total",
		Help: "Total number of recordings processed",
	}, []string{"status"})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetmins_job_duration_seconds",
		Help:    "End-to-end processing time of a recording in seconds",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
	})

	recordingMinutes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetmins_recording_duration_minutes",
		Help:    "Duration of processed recordings in minutes",
		Buckets: []float64{1, 5, 15, 30, 60, 90, 120},
	})

	// Stage metrics
	stageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meetmins_stage_latency_seconds",
		Help:    "Latency of each pipeline stage in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	// Remote service metrics
	remoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetmins_remote_requests_total",
		Help: "Total number of outbound requests to remote services",
	}, []string{"service", "status"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetmins_errors_total",
		Help: "Total number of errors",
	}, []string{"kind", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "meetmins_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetmins_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// JobMetrics tracks metrics for a single recording
type JobMetrics struct {
	startTime time.Time
}

// NewJobMetrics starts tracking a job
func NewJobMetrics() *JobMetrics {
	activeJobs.Inc()
	return &JobMetrics{startTime: time.Now()}
}

// ObserveStage times fn as the given stage
func (m *JobMetrics) ObserveStage(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	stageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return err
}

// RecordRecording records the duration of the processed recording
func (m *JobMetrics) RecordRecording(minutes float64) {
	recordingMinutes.Observe(minutes)
}

// Finish records the end of the job
func (m *JobMetrics) Finish(success bool) {
	activeJobs.Dec()
	jobDuration.Observe(time.Since(m.startTime).Seconds())

	status := "success"
	if !success {
		status = "error"
	}
	jobsTotal.WithLabelValues(status).Inc()
}

// RecordRemoteRequest records the outcome of an outbound request
func RecordRemoteRequest(service string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	remoteRequests.WithLabelValues(service, status).Inc()
}

// RecordError records an error
func RecordError(kind, component string) {
	errorsTotal.WithLabelValues(kind, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
