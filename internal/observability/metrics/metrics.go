package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "apmon_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	fetchRequests    *prometheus.CounterVec
	rateLimitRetries *prometheus.CounterVec

	cycleTotal   *prometheus.CounterVec
	cycleLatency *prometheus.HistogramVec

	recordsMerged  *prometheus.CounterVec
	recordsSkipped *prometheus.CounterVec

	maintenanceActive prometheus.Gauge
	maintenanceUntil  prometheus.Gauge

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec
)

// Init registers the service metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		fetchRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_requests_total",
				Help: "Total upstream fetch requests by endpoint and result",
			},
			[]string{"endpoint", "result"},
		)
		rateLimitRetries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rate_limit_retries_total",
				Help: "Total 429 retries by endpoint",
			},
			[]string{"endpoint"},
		)

		cycleTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cycle_total",
				Help: "Total reconciliation cycles by job and result",
			},
			[]string{"job", "result"},
		)
		cycleLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "cycle_latency_seconds",
				Help:    "Reconciliation cycle latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job", "result"},
		)

		recordsMerged = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_merged_total",
				Help: "Total merged AP records by status",
			},
			[]string{"status"},
		)
		recordsSkipped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_skipped_total",
				Help: "Total records dropped during merge or persistence by reason",
			},
			[]string{"reason"},
		)

		maintenanceActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "maintenance_active",
				Help: "1 while the upstream maintenance window holds, else 0",
			},
		)
		maintenanceUntil = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "maintenance_until_seconds",
				Help: "Unix time the current maintenance window ends, 0 when none",
			},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report export operations by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			fetchRequests,
			rateLimitRetries,
			cycleTotal,
			cycleLatency,
			recordsMerged,
			recordsSkipped,
			maintenanceActive,
			maintenanceUntil,
			reportExportTotal,
			reportExportLatency,
		)
	})
}

// IncFetchRequest increments the upstream fetch counter.
func IncFetchRequest(endpoint, result string) {
	if endpoint == "" {
		endpoint = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if fetchRequests != nil {
		fetchRequests.WithLabelValues(endpoint, result).Inc()
	}
}

// IncRateLimitRetry increments the 429 retry counter.
func IncRateLimitRetry(endpoint string) {
	if endpoint == "" {
		endpoint = "unknown"
	}
	if rateLimitRetries != nil {
		rateLimitRetries.WithLabelValues(endpoint).Inc()
	}
}

// ObserveCycle records one reconciliation cycle.
func ObserveCycle(job, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if cycleTotal != nil {
		cycleTotal.WithLabelValues(job, result).Inc()
	}
	if cycleLatency != nil {
		cycleLatency.WithLabelValues(job, result).Observe(duration.Seconds())
	}
}

// AddRecordsMerged adds to the merged record counter for one status.
func AddRecordsMerged(status string, count int) {
	if count <= 0 {
		return
	}
	if status == "" {
		status = "unknown"
	}
	if recordsMerged != nil {
		recordsMerged.WithLabelValues(status).Add(float64(count))
	}
}

// IncRecordsSkipped increments the dropped record counter.
func IncRecordsSkipped(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if recordsSkipped != nil {
		recordsSkipped.WithLabelValues(reason).Inc()
	}
}

// SetMaintenanceWindow publishes the current maintenance window end, or
// clears it when until is the zero time.
func SetMaintenanceWindow(until time.Time) {
	if maintenanceActive == nil || maintenanceUntil == nil {
		return
	}
	if until.IsZero() {
		maintenanceActive.Set(0)
		maintenanceUntil.Set(0)
		return
	}
	maintenanceActive.Set(1)
	maintenanceUntil.Set(float64(until.Unix()))
}

// ObserveReportExport records one report export.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
