package handlers

import (
	"context"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/treasury/internal/api/middleware"
	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/insights"
	"github.com/dvloznov/treasury/internal/report"
	"github.com/dvloznov/treasury/internal/treasury"
)

// TreasuryService is the read side of the treasury engine.
type TreasuryService interface {
	report.Source
	RiskSummary(ctx context.Context, params treasury.ProjectionParams) (treasury.RiskSummary, error)
}

// TreasuryHandler serves the dashboard views.
type TreasuryHandler struct {
	svc            TreasuryService
	narrator       insights.Narrator
	defaultHorizon int
	now            func() time.Time
	log            zerolog.Logger
}

// NewTreasuryHandler creates a treasury handler. narrator may be nil, in
// which case the briefing endpoint is unavailable.
func NewTreasuryHandler(svc TreasuryService, narrator insights.Narrator, defaultHorizon int, log zerolog.Logger) *TreasuryHandler {
	return &TreasuryHandler{
		svc:            svc,
		narrator:       narrator,
		defaultHorizon: defaultHorizon,
		now:            time.Now,
		log:            log,
	}
}

func (h *TreasuryHandler) today() civil.Date { return civil.DateOf(h.now()) }

// KPIs handles GET /api/treasury/kpis
func (h *TreasuryHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePeriod(q, h.today())
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid period")
		return
	}

	kpis, err := h.svc.KPIs(r.Context(), p, q.Get("currency"))
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Failed to compute KPIs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, kpis)
}

// Breakdown handles GET /api/treasury/breakdown
func (h *TreasuryHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePeriod(q, h.today())
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid period")
		return
	}
	group, err := domain.ParseKindGroup(q.Get("group"))
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid group")
		return
	}

	breakdown, err := h.svc.BreakdownByProject(r.Context(), p, q.Get("currency"), group)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Failed to compute breakdown")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, breakdown)
}

// TimeSeries handles GET /api/treasury/timeseries
func (h *TreasuryHandler) TimeSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePeriod(q, h.today())
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid period")
		return
	}

	buckets, err := h.svc.TimeSeries(r.Context(), p, q.Get("currency"))
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Failed to compute time series")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"period":  p,
		"buckets": buckets,
	})
}

// Ranking handles GET /api/treasury/ranking
func (h *TreasuryHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePeriod(q, h.today())
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid period")
		return
	}

	projects, err := h.svc.ProjectRanking(r.Context(), p, q.Get("currency"))
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Failed to rank projects")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"count":    len(projects),
	})
}

// TopProviders handles GET /api/treasury/top-providers
func (h *TreasuryHandler) TopProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePeriod(q, h.today())
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid period")
		return
	}
	n, err := intParam(q, "n", 0)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid n")
		return
	}

	providers, err := h.svc.TopProviders(r.Context(), p, q.Get("currency"), n)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Failed to rank providers")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
		"count":     len(providers),
	})
}

// TopClients handles GET /api/treasury/top-clients
func (h *TreasuryHandler) TopClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePeriod(q, h.today())
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid period")
		return
	}
	n, err := intParam(q, "n", 0)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid n")
		return
	}

	clients, err := h.svc.TopClients(r.Context(), p, q.Get("currency"), n)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Failed to rank clients")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"clients": clients,
		"count":   len(clients),
	})
}

// Liquidity handles GET /api/treasury/liquidity
func (h *TreasuryHandler) Liquidity(w http.ResponseWriter, r *http.Request) {
	params, err := parseProjection(r.URL.Query(), h.today(), h.defaultHorizon)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid projection parameters")
		return
	}

	proj, err := h.svc.LiquidityProjection(r.Context(), params)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Failed to project liquidity")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, proj)
}

// Risk handles GET /api/treasury/risk
func (h *TreasuryHandler) Risk(w http.ResponseWriter, r *http.Request) {
	params, err := parseProjection(r.URL.Query(), h.today(), h.defaultHorizon)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid projection parameters")
		return
	}

	summary, err := h.svc.RiskSummary(r.Context(), params)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Failed to summarize risk")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// Briefing handles GET /api/treasury/briefing
func (h *TreasuryHandler) Briefing(w http.ResponseWriter, r *http.Request) {
	if h.narrator == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Briefings are not configured")
		return
	}

	q := r.URL.Query()
	today := h.today()
	p, err := parsePeriod(q, today)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid period")
		return
	}
	params, err := parseProjection(q, today, h.defaultHorizon)
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Invalid projection parameters")
		return
	}

	rep, err := report.Build(r.Context(), h.svc, report.Options{
		Period:     p,
		Currency:   q.Get("currency"),
		Projection: params,
	})
	if err != nil {
		middleware.WriteServiceError(w, h.log, err, "Failed to build report")
		return
	}

	text, err := h.narrator.Briefing(r.Context(), rep)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to generate briefing")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to generate briefing")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"period":   p,
		"briefing": text,
	})
}
