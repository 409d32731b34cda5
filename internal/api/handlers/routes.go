package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dvloznov/treasury/internal/api/middleware"
)

// Register mounts every endpoint on r.
func Register(r *mux.Router, t *TreasuryHandler, scans *RiskScanHandler, jobsHandler *JobsHandler) {
	api := r.PathPrefix("/api").Subrouter()

	tr := api.PathPrefix("/treasury").Subrouter()
	tr.HandleFunc("/kpis", t.KPIs).Methods(http.MethodGet)
	tr.HandleFunc("/breakdown", t.Breakdown).Methods(http.MethodGet)
	tr.HandleFunc("/timeseries", t.TimeSeries).Methods(http.MethodGet)
	tr.HandleFunc("/ranking", t.Ranking).Methods(http.MethodGet)
	tr.HandleFunc("/top-providers", t.TopProviders).Methods(http.MethodGet)
	tr.HandleFunc("/top-clients", t.TopClients).Methods(http.MethodGet)
	tr.HandleFunc("/liquidity", t.Liquidity).Methods(http.MethodGet)
	tr.HandleFunc("/risk", t.Risk).Methods(http.MethodGet)
	tr.HandleFunc("/briefing", t.Briefing).Methods(http.MethodGet)

	api.HandleFunc("/risk/scans", scans.EnqueueScan).Methods(http.MethodPost)
	api.HandleFunc("/risk/scans/latest", scans.LatestScan).Methods(http.MethodGet)

	api.HandleFunc("/jobs", jobsHandler.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", jobsHandler.GetJob).Methods(http.MethodGet)

	r.HandleFunc("/health", Health).Methods(http.MethodGet)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
