package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/dvloznov/treasury/internal/api/middleware"
	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/jobs"
	"github.com/dvloznov/treasury/internal/treasury"
)

// RiskScanner enqueues risk scans and reports the latest accepted one.
type RiskScanner interface {
	Submit(ctx context.Context, params treasury.ProjectionParams, trigger jobs.Trigger) (*jobs.RiskScanJob, error)
	Latest() (jobs.ScanOutcome, bool)
}

// RiskScanHandler handles risk scan endpoints.
type RiskScanHandler struct {
	scanner        RiskScanner
	defaultHorizon int
	now            func() time.Time
	log            zerolog.Logger
}

// NewRiskScanHandler creates a new risk scan handler.
func NewRiskScanHandler(scanner RiskScanner, defaultHorizon int, log zerolog.Logger) *RiskScanHandler {
	return &RiskScanHandler{
		scanner:        scanner,
		defaultHorizon: defaultHorizon,
		now:            time.Now,
		log:            log,
	}
}

// EnqueueScan handles POST /api/risk/scans
func (h *RiskScanHandler) EnqueueScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AsOf        string `json:"as_of"`
		HorizonDays int    `json:"horizon_days"`
		RiskOnly    bool   `json:"risk_only"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	params := treasury.ProjectionParams{
		AsOf:        civil.DateOf(h.now()),
		HorizonDays: req.HorizonDays,
		RiskOnly:    req.RiskOnly,
	}
	if req.AsOf != "" {
		d, err := civil.ParseDate(req.AsOf)
		if err != nil {
			middleware.WriteServiceError(w, h.log, domain.Invalid("as_of", "expected YYYY-MM-DD, got %q", req.AsOf), "Invalid as_of")
			return
		}
		params.AsOf = d
	}
	if params.HorizonDays == 0 {
		params.HorizonDays = h.defaultHorizon
	}

	job, err := h.scanner.Submit(r.Context(), params, jobs.TriggerAPI)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Failed to enqueue risk scan")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   job.JobID,
		"sequence": job.Sequence,
		"status":   string(job.Status),
	})
}

// LatestScan handles GET /api/risk/scans/latest
func (h *RiskScanHandler) LatestScan(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.scanner.Latest()
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "No risk scan has completed yet")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, outcome)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.log.Warn().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Trigger: jobs.Trigger(query.Get("trigger")),
		Status:  jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
