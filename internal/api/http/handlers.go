// Package apihttp serves the read-side API: scheduler state, merged AP
// detail, count history, exports, and diagnostics.
package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apdatapg "ap-monitor/internal/apdata/infrastructure/postgres"
	"ap-monitor/internal/audit"
	"ap-monitor/internal/auth"
	countspg "ap-monitor/internal/counts/infrastructure/postgres"
	countsexport "ap-monitor/internal/counts/interfaces"
	"ap-monitor/internal/diagnostics"
	"ap-monitor/internal/observability/metrics"
	"ap-monitor/internal/reconcile/application"
)

const defaultListLimit = 100

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func parseLimit(r *http.Request) (int, error) {
	value := r.URL.Query().Get("limit")
	if value == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	return limit, nil
}

// HealthzHandler serves liveness checks.
type HealthzHandler struct{}

func (HealthzHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SchedulerHandler serves GET /api/v1/scheduler.
type SchedulerHandler struct {
	state *application.State
}

// NewSchedulerHandler constructs a SchedulerHandler.
func NewSchedulerHandler(state *application.State) *SchedulerHandler {
	return &SchedulerHandler{state: state}
}

func (h *SchedulerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.state == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

// TaskRunner runs one job cycle. *application.Task satisfies it.
type TaskRunner interface {
	Run(ctx context.Context, job application.JobID) error
}

// TaskTriggerHandler serves POST /api/v1/tasks/{job}/run.
type TaskTriggerHandler struct {
	runner   TaskRunner
	auditLog audit.Logger
}

// NewTaskTriggerHandler constructs a TaskTriggerHandler. auditLog may be nil.
func NewTaskTriggerHandler(runner TaskRunner, auditLog audit.Logger) *TaskTriggerHandler {
	return &TaskTriggerHandler{runner: runner, auditLog: auditLog}
}

func (h *TaskTriggerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.runner == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	// /api/v1/tasks/{job}/run
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/tasks/")
	name := strings.TrimSuffix(rest, "/run")
	if name == rest || strings.Contains(name, "/") {
		http.Error(w, "unknown task route", http.StatusNotFound)
		return
	}
	job, ok := application.ParseJobID(name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown job %q", name), http.StatusNotFound)
		return
	}

	err := h.runner.Run(r.Context(), job)
	h.recordAudit(r, job, err)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"job":   string(job),
			"error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job":    string(job),
		"result": "completed",
	})
}

func (h *TaskTriggerHandler) recordAudit(r *http.Request, job application.JobID, runErr error) {
	if h.auditLog == nil {
		return
	}
	outcome := "completed"
	if runErr != nil {
		outcome = "failed"
	}
	meta, _ := json.Marshal(map[string]string{"outcome": outcome})
	_ = h.auditLog.Log(r.Context(), audit.Entry{
		Actor:     auth.SubjectFromContext(r.Context()),
		Role:      string(auth.RoleFromContext(r.Context())),
		Action:    "task.trigger",
		Resource:  string(job),
		Metadata:  meta,
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
}

// APsHandler serves GET /api/v1/aps.
type APsHandler struct {
	aps *apdatapg.AccessPointRepository
}

// NewAPsHandler constructs an APsHandler.
func NewAPsHandler(aps *apdatapg.AccessPointRepository) *APsHandler {
	return &APsHandler{aps: aps}
}

func (h *APsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.aps == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := h.aps.List(r.Context(), limit)
	if err != nil {
		http.Error(w, "query aps error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// BuildingsHandler serves GET /api/v1/buildings.
type BuildingsHandler struct {
	hierarchy *apdatapg.HierarchyRepository
}

// NewBuildingsHandler constructs a BuildingsHandler.
func NewBuildingsHandler(hierarchy *apdatapg.HierarchyRepository) *BuildingsHandler {
	return &BuildingsHandler{hierarchy: hierarchy}
}

func (h *BuildingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.hierarchy == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	rows, err := h.hierarchy.ListBuildings(r.Context())
	if err != nil {
		http.Error(w, "query buildings error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ClientCountsHandler serves GET /api/v1/client-counts.
type ClientCountsHandler struct {
	counts *countspg.ClientCountRepository
}

// NewClientCountsHandler constructs a ClientCountsHandler.
func NewClientCountsHandler(counts *countspg.ClientCountRepository) *ClientCountsHandler {
	return &ClientCountsHandler{counts: counts}
}

func (h *ClientCountsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.counts == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := h.counts.Recent(r.Context(), r.URL.Query().Get("building"), limit)
	if err != nil {
		http.Error(w, "query client counts error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// APCountsHandler serves GET /api/v1/ap-counts.
type APCountsHandler struct {
	counts *apdatapg.APClientCountRepository
}

// NewAPCountsHandler constructs an APCountsHandler.
func NewAPCountsHandler(counts *apdatapg.APClientCountRepository) *APCountsHandler {
	return &APCountsHandler{counts: counts}
}

func (h *APCountsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.counts == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := h.counts.Recent(r.Context(), r.URL.Query().Get("building"), limit)
	if err != nil {
		http.Error(w, "query ap counts error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ExportClientCountsHandler serves GET /api/v1/reports/client-counts.{xlsx,pdf}.
type ExportClientCountsHandler struct {
	counts *countspg.ClientCountRepository
}

// NewExportClientCountsHandler constructs an ExportClientCountsHandler.
func NewExportClientCountsHandler(counts *countspg.ClientCountRepository) *ExportClientCountsHandler {
	return &ExportClientCountsHandler{counts: counts}
}

func (h *ExportClientCountsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.counts == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	var format string
	switch {
	case strings.HasSuffix(r.URL.Path, ".xlsx"):
		format = "xlsx"
	case strings.HasSuffix(r.URL.Path, ".pdf"):
		format = "pdf"
	default:
		http.Error(w, "unknown export format", http.StatusNotFound)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	building := r.URL.Query().Get("building")

	start := time.Now()
	rows, err := h.counts.Recent(r.Context(), building, limit)
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "query client counts error", http.StatusInternalServerError)
		return
	}

	var payload []byte
	var contentType string
	switch format {
	case "xlsx":
		payload, err = countsexport.BuildClientCountsXLSX(building, rows, time.Now())
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = countsexport.BuildClientCountsPDF(building, rows, time.Now())
		contentType = "application/pdf"
	}
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "build export error", http.StatusInternalServerError)
		return
	}

	metrics.ObserveReportExport(format, metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=client-counts.%s", format))
	_, _ = w.Write(payload)
}

// DiagnosticsIncompleteHandler serves GET /api/v1/diagnostics/incomplete.
type DiagnosticsIncompleteHandler struct {
	sink *diagnostics.Sink
}

// NewDiagnosticsIncompleteHandler constructs a DiagnosticsIncompleteHandler.
func NewDiagnosticsIncompleteHandler(sink *diagnostics.Sink) *DiagnosticsIncompleteHandler {
	return &DiagnosticsIncompleteHandler{sink: sink}
}

func (h *DiagnosticsIncompleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.sink == nil || !h.sink.Enabled() {
		http.Error(w, "diagnostics disabled", http.StatusNotFound)
		return
	}
	devices, updatedAt, err := h.sink.Read()
	if err != nil {
		http.Error(w, "read diagnostics error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"updated_at": updatedAt,
		"devices":    devices,
	})
}

// DiagnosticsReportHandler serves POST /api/v1/diagnostics/report.
type DiagnosticsReportHandler struct {
	analyzer *diagnostics.Analyzer
	auditLog audit.Logger
}

// NewDiagnosticsReportHandler constructs a DiagnosticsReportHandler. auditLog
// may be nil.
func NewDiagnosticsReportHandler(analyzer *diagnostics.Analyzer, auditLog audit.Logger) *DiagnosticsReportHandler {
	return &DiagnosticsReportHandler{analyzer: analyzer, auditLog: auditLog}
}

func (h *DiagnosticsReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.analyzer == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	report, err := h.analyzer.Report(r.Context())
	if err != nil {
		http.Error(w, "diagnostics report error", http.StatusInternalServerError)
		return
	}
	if h.auditLog != nil {
		meta, _ := json.Marshal(map[string]int{
			"buildings_analyzed": report.Summary.BuildingsAnalyzed,
			"active_alerts":      report.Summary.ActiveAlerts,
		})
		_ = h.auditLog.Log(r.Context(), audit.Entry{
			Actor:     auth.SubjectFromContext(r.Context()),
			Role:      string(auth.RoleFromContext(r.Context())),
			Action:    "diagnostics.report",
			Resource:  report.ID,
			Metadata:  meta,
			IP:        r.RemoteAddr,
			UserAgent: r.UserAgent(),
		})
	}
	writeJSON(w, http.StatusOK, report)
}
