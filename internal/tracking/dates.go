package tracking

import (
	"math"
	"sort"
	"time"

	"github.com/upyoung/warroom/internal/models"
)

const dayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD date string into a local-midnight time.
func ParseDay(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(dayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDay renders a time as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(dayLayout)
}

// Today returns the current local date at midnight.
func Today() time.Time {
	return Midnight(time.Now())
}

// Midnight truncates a time to local midnight.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the whole-day difference to - from. Negative when
// to precedes from.
func DaysBetween(from, to time.Time) int {
	return int(math.Floor(Midnight(to).Sub(Midnight(from)).Hours() / 24))
}

// SortedMilestones returns a date-ascending copy of the milestone list.
// The source slice is never modified.
func SortedMilestones(ms models.MilestoneList) []models.Milestone {
	sorted := make([]models.Milestone, len(ms))
	copy(sorted, ms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})
	return sorted
}

// FinalMilestone returns the milestone with the latest planned date.
func FinalMilestone(ms models.MilestoneList) (models.Milestone, bool) {
	if len(ms) == 0 {
		return models.Milestone{}, false
	}
	sorted := SortedMilestones(ms)
	return sorted[len(sorted)-1], true
}

// LatestEventDate returns the maximum date across all events.
func LatestEventDate(events models.EventList) (string, bool) {
	if len(events) == 0 {
		return "", false
	}
	latest := events[0].Date
	for _, ev := range events[1:] {
		if ev.Date > latest {
			latest = ev.Date
		}
	}
	return latest, true
}

// DeadlineStatus classifies a single deadline date relative to today:
// overdue, warning (within 7 days) or normal. days is always non-negative.
func DeadlineStatus(dateStr string, today time.Time) (string, int) {
	target, ok := ParseDay(dateStr)
	if !ok {
		return "normal", 0
	}
	diff := DaysBetween(today, target)
	switch {
	case diff < 0:
		return "overdue", -diff
	case diff <= 7:
		return "warning", diff
	default:
		return "normal", diff
	}
}

// MilestoneOverdue reports whether an incomplete milestone's planned date
// has passed.
func MilestoneOverdue(m models.Milestone, today time.Time) bool {
	if m.IsCompleted || m.Date == "" {
		return false
	}
	d, ok := ParseDay(m.Date)
	if !ok {
		return false
	}
	return d.Before(today)
}

// Progress returns the percentage of completed milestones, rounded.
func Progress(sp *models.SubProject) int {
	total := len(sp.Milestones)
	if total == 0 {
		return 0
	}
	done := 0
	for _, m := range sp.Milestones {
		if m.IsCompleted {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
