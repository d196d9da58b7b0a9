package tracking

import (
	"time"

	"github.com/upyoung/warroom/internal/models"
)

// HealthType classifies a sub-project's schedule standing.
type HealthType string

const (
	HealthNormal  HealthType = "normal"
	HealthDelay   HealthType = "delay"
	HealthLag     HealthType = "lag"
	HealthAborted HealthType = "aborted"
)

// Health is the derived delay/lag classification used across the
// monitoring views.
type Health struct {
	Type HealthType `json:"type"`
	Days int        `json:"days"`
}

// Classify derives the health of a sub-project as of the given day.
// Precedence is load-bearing: a completed project reports its recorded
// final delay, an aborted one is always "aborted", an end-date breach
// always wins over milestone lag, and only a non-final milestone slipping
// produces "lag".
func Classify(sp *models.SubProject, today time.Time) Health {
	if sp.Status == models.SubStatusCompleted {
		if sp.FinalDelayDays > 0 {
			return Health{Type: HealthDelay, Days: sp.FinalDelayDays}
		}
		return Health{Type: HealthNormal, Days: 0}
	}
	if sp.Status == models.SubStatusAborted {
		return Health{Type: HealthAborted, Days: 0}
	}

	today = Midnight(today)
	deadline, ok := ParseDay(sp.EndDate)
	if !ok {
		return Health{Type: HealthNormal, Days: 0}
	}
	if deadline.Before(today) {
		return Health{Type: HealthDelay, Days: DaysBetween(deadline, today)}
	}

	if len(sp.Milestones) > 0 {
		sorted := SortedMilestones(sp.Milestones)
		final := sorted[len(sorted)-1]
		for _, m := range sorted {
			if m.IsCompleted {
				continue
			}
			// A slipped final milestone never lags; only the hard
			// end-date breach above reports it.
			if m.ID != final.ID {
				if msDate, ok := ParseDay(m.Date); ok && msDate.Before(today) {
					return Health{Type: HealthLag, Days: DaysBetween(msDate, today)}
				}
			}
			break
		}
	}

	return Health{Type: HealthNormal, Days: DaysBetween(today, deadline)}
}

// DelayDays returns the plain overdue-day count used by list badges:
// recorded final delay for completed projects, live end-date breach for
// running ones, zero for aborted.
func DelayDays(sp *models.SubProject, today time.Time) int {
	if sp.Status == models.SubStatusCompleted {
		return sp.FinalDelayDays
	}
	if sp.Status == models.SubStatusAborted {
		return 0
	}
	deadline, ok := ParseDay(sp.EndDate)
	if !ok {
		return 0
	}
	today = Midnight(today)
	if deadline.Before(today) {
		return DaysBetween(deadline, today)
	}
	return 0
}
