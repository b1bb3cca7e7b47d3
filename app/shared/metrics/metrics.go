// Package metrics defines the operation metrics recorded by services and the
// persistence bridge, with a Prometheus-backed implementation and a NoOp for
// tests.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the metrics surface the services depend on.
type Recorder interface {
	RecordOperationAttempt(ctx context.Context, operation string)
	RecordOperationSuccess(ctx context.Context, operation string)
	RecordOperationFailure(ctx context.Context, operation string)
	RecordOperationDuration(ctx context.Context, operation string, d time.Duration)
	RecordBatchSize(ctx context.Context, size int)
	RecordBackupWrite(ctx context.Context)
	RecordRetry(ctx context.Context, attempt int)
}

// PrometheusRecorder implements Recorder on a prometheus registry.
type PrometheusRecorder struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	batchSize prometheus.Histogram
	backups   prometheus.Counter
	retries   prometheus.Counter
}

// NewPrometheusRecorder registers the scorekeeper metric families on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorekeeper", Name: "operation_attempts_total",
			Help: "Service operation attempts by operation name.",
		}, []string{"operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorekeeper", Name: "operation_successes_total",
			Help: "Service operation successes by operation name.",
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorekeeper", Name: "operation_failures_total",
			Help: "Service operation failures by operation name.",
		}, []string{"operation"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scorekeeper", Name: "operation_duration_seconds",
			Help:    "Service operation wall time by operation name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scorekeeper", Name: "save_batch_entries",
			Help:    "Dirty entries per batched save.",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80},
		}),
		backups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scorekeeper", Name: "local_backup_writes_total",
			Help: "Durable local backup writes.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scorekeeper", Name: "save_retries_total",
			Help: "Batched save retries.",
		}),
	}
	reg.MustRegister(r.attempts, r.successes, r.failures, r.durations, r.batchSize, r.backups, r.retries)
	return r
}

func (r *PrometheusRecorder) RecordOperationAttempt(_ context.Context, op string) {
	r.attempts.WithLabelValues(op).Inc()
}

func (r *PrometheusRecorder) RecordOperationSuccess(_ context.Context, op string) {
	r.successes.WithLabelValues(op).Inc()
}

func (r *PrometheusRecorder) RecordOperationFailure(_ context.Context, op string) {
	r.failures.WithLabelValues(op).Inc()
}

func (r *PrometheusRecorder) RecordOperationDuration(_ context.Context, op string, d time.Duration) {
	r.durations.WithLabelValues(op).Observe(d.Seconds())
}

func (r *PrometheusRecorder) RecordBatchSize(_ context.Context, size int) {
	r.batchSize.Observe(float64(size))
}

func (r *PrometheusRecorder) RecordBackupWrite(_ context.Context) {
	r.backups.Inc()
}

func (r *PrometheusRecorder) RecordRetry(_ context.Context, attempt int) {
	r.retries.Inc()
}

// NoOp discards every recording. Used in tests.
type NoOp struct{}

func (NoOp) RecordOperationAttempt(context.Context, string)                {}
func (NoOp) RecordOperationSuccess(context.Context, string)                {}
func (NoOp) RecordOperationFailure(context.Context, string)                {}
func (NoOp) RecordOperationDuration(context.Context, string, time.Duration) {}
func (NoOp) RecordBatchSize(context.Context, int)                          {}
func (NoOp) RecordBackupWrite(context.Context)                             {}
func (NoOp) RecordRetry(context.Context, int)                              {}
