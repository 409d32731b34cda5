package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/treasury/internal/domain"
	"github.com/dvloznov/treasury/internal/treasury"
)

// parsePeriod reads mode, year and month. Missing values default to the
// period containing today.
func parsePeriod(q url.Values, today civil.Date) (treasury.Period, error) {
	mode, err := treasury.ParsePeriodMode(q.Get("mode"))
	if err != nil {
		return treasury.Period{}, err
	}
	year, err := intParam(q, "year", today.Year)
	if err != nil {
		return treasury.Period{}, err
	}
	if mode == treasury.ModeYear {
		p := treasury.YearPeriod(year)
		return p, p.Validate()
	}
	month, err := intParam(q, "month", int(today.Month))
	if err != nil {
		return treasury.Period{}, err
	}
	p := treasury.MonthPeriod(year, time.Month(month))
	return p, p.Validate()
}

// parseProjection reads as_of, horizon and risk_only.
func parseProjection(q url.Values, today civil.Date, defaultHorizon int) (treasury.ProjectionParams, error) {
	params := treasury.ProjectionParams{AsOf: today}
	if s := strings.TrimSpace(q.Get("as_of")); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			return params, domain.Invalid("as_of", "expected YYYY-MM-DD, got %q", s)
		}
		params.AsOf = d
	}
	horizon, err := intParam(q, "horizon", defaultHorizon)
	if err != nil {
		return params, err
	}
	params.HorizonDays = horizon
	if s := q.Get("risk_only"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return params, domain.Invalid("risk_only", "expected a boolean, got %q", s)
		}
		params.RiskOnly = v
	}
	return params, params.Validate()
}

func intParam(q url.Values, name string, def int) (int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.Invalid(name, "expected an integer, got %q", s)
	}
	return v, nil
}
