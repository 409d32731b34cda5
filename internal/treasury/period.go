package treasury

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/treasury/internal/domain"
)

// PeriodMode selects the granularity of a reporting period.
type PeriodMode string

const (
	ModeMonth PeriodMode = "MONTH"
	ModeYear  PeriodMode = "YEAR"
)

// ParsePeriodMode accepts month/monthly/year/yearly in any case.
func ParsePeriodMode(s string) (PeriodMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month", "monthly", "":
		return ModeMonth, nil
	case "year", "yearly":
		return ModeYear, nil
	default:
		return "", domain.Invalid("mode", "unknown period mode %q", s)
	}
}

// Period is a reporting period: one calendar month or one calendar year.
type Period struct {
	Mode  PeriodMode `json:"mode"`
	Year  int        `json:"year"`
	Month time.Month `json:"month,omitempty"`
}

// MonthPeriod returns the period covering year/month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Mode: ModeMonth, Year: year, Month: month}
}

// YearPeriod returns the period covering year.
func YearPeriod(year int) Period { return Period{Mode: ModeYear, Year: year} }

// Validate rejects modes, years and months that do not name a period.
func (p Period) Validate() error {
	if p.Year < 1 || p.Year > 9999 {
		return domain.Invalid("year", "%d out of range", p.Year)
	}
	switch p.Mode {
	case ModeMonth:
		if p.Month < time.January || p.Month > time.December {
			return domain.Invalid("month", "%d outside 1-12", int(p.Month))
		}
	case ModeYear:
	default:
		return domain.Invalid("mode", "unknown period mode %q", p.Mode)
	}
	return nil
}

// Range returns the first and last calendar day of the period, inclusive.
func (p Period) Range() (start, end civil.Date) {
	if p.Mode == ModeYear {
		return civil.Date{Year: p.Year, Month: time.January, Day: 1},
			civil.Date{Year: p.Year, Month: time.December, Day: 31}
	}
	start = civil.Date{Year: p.Year, Month: p.Month, Day: 1}
	return start, lastDayOfMonth(p.Year, p.Month)
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d civil.Date) bool {
	start, end := p.Range()
	return !d.Before(start) && !d.After(end)
}

func (p Period) String() string {
	if p.Mode == ModeYear {
		return fmt.Sprintf("%04d", p.Year)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// lastDayOfMonth relies on time.Date normalizing day 0 of the next month.
func lastDayOfMonth(year int, month time.Month) civil.Date {
	return civil.DateOf(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
}
