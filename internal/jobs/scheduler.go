package jobs

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/dvloznov/treasury/internal/treasury"
)

// Scheduler submits risk scans on a cron schedule.
type Scheduler struct {
	cron        *cron.Cron
	scanner     *Scanner
	horizonDays int
	riskOnly    bool
	now         func() time.Time
	log         zerolog.Logger
}

// NewScheduler creates a scheduler submitting scans of horizonDays days
// from the current date whenever spec fires. spec is a standard five-field
// cron expression or a descriptor such as "@daily".
func NewScheduler(spec string, scanner *Scanner, horizonDays int, riskOnly bool, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:        cron.New(),
		scanner:     scanner,
		horizonDays: horizonDays,
		riskOnly:    riskOnly,
		now:         time.Now,
		log:         log,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("NewScheduler: parsing schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	s.submit(context.Background())
}

func (s *Scheduler) submit(ctx context.Context) {
	params := treasury.ProjectionParams{
		AsOf:        civil.DateOf(s.now()),
		HorizonDays: s.horizonDays,
		RiskOnly:    s.riskOnly,
	}
	if _, err := s.scanner.Submit(ctx, params, TriggerSchedule); err != nil {
		s.log.Error().Err(err).Msg("Failed to submit scheduled risk scan")
	}
}

// Start runs the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("entries", len(s.cron.Entries())).Msg("Risk scan scheduler started")
}

// Stop stops the schedule and waits for a running submission to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
