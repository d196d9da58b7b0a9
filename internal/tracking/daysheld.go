package tracking

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/upyoung/warroom/internal/models"
)

// DaysHeld counts the business days (Mon-Fri) a sub-project has sat with
// its current handler since the last handoff. Weekends are excluded, the
// handoff day itself is not counted, and a pending manager check freezes
// the count at zero.
func DaysHeld(sp *models.SubProject, now time.Time) int {
	if sp.IsWaitingForManager {
		return 0
	}
	return BusinessDaysSince(sp.LastHandoffDate, now)
}

// BusinessDaysSince counts Mon-Fri days after the given date up to and
// including today. Returns 0 for missing or future dates.
func BusinessDaysSince(dateStr string, now time.Time) int {
	start, ok := ParseDay(dateStr)
	if !ok {
		return 0
	}
	end := Midnight(now)
	if !start.Before(end) {
		return 0
	}

	count := 0
	for curr := start; curr.Before(end); {
		curr = curr.AddDate(0, 0, 1)
		if !cal.IsWeekend(curr) {
			count++
		}
	}
	return count
}
