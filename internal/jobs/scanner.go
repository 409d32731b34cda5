package jobs

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/treasury/internal/treasury"
)

// LiquidityProjector computes liquidity projections.
type LiquidityProjector interface {
	LiquidityProjection(ctx context.Context, params treasury.ProjectionParams) (treasury.Projection, error)
}

// AlertSink receives the at-risk accounts of each accepted scan.
type AlertSink interface {
	SyncRiskAlerts(ctx context.Context, asOf civil.Date, horizonDays int, accounts []treasury.AccountProjection) error
}

// ScanOutcome is the result of the most recent accepted risk scan.
type ScanOutcome struct {
	JobID       string                       `json:"job_id"`
	AsOf        civil.Date                   `json:"as_of"`
	HorizonDays int                          `json:"horizon_days"`
	RiskOnly    bool                         `json:"risk_only"`
	Summary     treasury.RiskSummary         `json:"summary"`
	AtRisk      []treasury.AccountProjection `json:"at_risk"`
	CompletedAt time.Time                    `json:"completed_at"`
}

// Scanner submits risk scans to a queue and handles them. When scans
// overlap, only the most recently submitted one updates the latest outcome.
type Scanner struct {
	projector LiquidityProjector
	publisher Publisher
	alerts    AlertSink
	latest    treasury.Latest[ScanOutcome]
	log       zerolog.Logger
}

// NewScanner creates a scanner. alerts may be nil.
func NewScanner(projector LiquidityProjector, publisher Publisher, alerts AlertSink, log zerolog.Logger) *Scanner {
	return &Scanner{
		projector: projector,
		publisher: publisher,
		alerts:    alerts,
		log:       log,
	}
}

// Submit validates params and enqueues a scan.
func (s *Scanner) Submit(ctx context.Context, params treasury.ProjectionParams, trigger Trigger) (*RiskScanJob, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	job := &RiskScanJob{
		AsOf:        params.AsOf,
		HorizonDays: params.HorizonDays,
		RiskOnly:    params.RiskOnly,
		Trigger:     trigger,
		Sequence:    s.latest.Begin(),
	}
	if err := s.publisher.PublishRiskScan(ctx, job); err != nil {
		return nil, fmt.Errorf("Submit: publishing: %w", err)
	}
	s.log.Info().
		Str("job_id", job.JobID).
		Str("trigger", string(trigger)).
		Uint64("sequence", job.Sequence).
		Msg("Risk scan enqueued")
	return job, nil
}

// Latest returns the outcome of the most recent accepted scan.
func (s *Scanner) Latest() (ScanOutcome, bool) {
	outcome, _, ok := s.latest.Get()
	return outcome, ok
}

// Handle implements JobHandler for risk scan jobs.
func (s *Scanner) Handle(ctx context.Context, job Job) error {
	scan, ok := job.(*RiskScanJob)
	if !ok {
		return fmt.Errorf("Handle: unexpected job type %s", job.GetType())
	}
	log := s.log.With().Str("job_id", scan.JobID).Uint64("sequence", scan.Sequence).Logger()

	proj, err := s.projector.LiquidityProjection(ctx, treasury.ProjectionParams{
		AsOf:        scan.AsOf,
		HorizonDays: scan.HorizonDays,
	})
	if err != nil {
		return fmt.Errorf("Handle: projecting: %w", err)
	}
	summary := treasury.Summarize(proj.Accounts)

	var atRisk []treasury.AccountProjection
	for _, acc := range proj.Accounts {
		if acc.AtRisk {
			atRisk = append(atRisk, acc)
		}
	}

	outcome := ScanOutcome{
		JobID:       scan.JobID,
		AsOf:        scan.AsOf,
		HorizonDays: scan.HorizonDays,
		RiskOnly:    scan.RiskOnly,
		Summary:     summary,
		AtRisk:      atRisk,
		CompletedAt: time.Now(),
	}
	accepted := s.latest.Complete(scan.Sequence, outcome)
	scan.Result = &ScanResult{
		TotalAccounts: summary.TotalAccounts,
		AtRiskCount:   summary.AtRiskCount,
		Accepted:      accepted,
	}
	if !accepted {
		log.Info().Msg("Discarding superseded risk scan")
		return nil
	}

	log.Info().
		Int("accounts", summary.TotalAccounts).
		Int("at_risk", summary.AtRiskCount).
		Msg("Risk scan completed")

	if s.alerts != nil {
		if err := s.alerts.SyncRiskAlerts(ctx, scan.AsOf, scan.HorizonDays, atRisk); err != nil {
			// alert failures do not fail the scan
			log.Error().Err(err).Msg("Failed to sync risk alerts")
			return nil
		}
		scan.Result.AlertsSynced = true
	}
	return nil
}
