package tracking

import (
	"math"

	"github.com/upyoung/warroom/internal/models"
)

// RoundHours rounds to one decimal place, half away from zero.
func RoundHours(h float64) float64 {
	return math.Round(h*10) / 10
}

// SumEventHours totals hours across a list of work-log events.
func SumEventHours(events models.EventList) float64 {
	var sum float64
	for _, ev := range events {
		sum += ev.Hours
	}
	return sum
}

// TotalHours returns the cached total when present (the write path keeps it
// current), otherwise recomputes from the event log. Either way the result
// carries one decimal place.
func TotalHours(sp *models.SubProject) float64 {
	if sp.TotalHours != nil {
		return *sp.TotalHours
	}
	return RoundHours(SumEventHours(sp.Events))
}

// MilestoneHours sums the hours logged between the previous milestone and
// the given one. The window is (previous milestone date, milestone date],
// with an open floor for the first milestone so early work still counts.
func MilestoneHours(sp *models.SubProject, milestoneID string) float64 {
	if len(sp.Events) == 0 || len(sp.Milestones) == 0 {
		return 0
	}

	sorted := SortedMilestones(sp.Milestones)
	idx := -1
	for i, m := range sorted {
		if m.ID == milestoneID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0
	}

	end := sorted[idx].Date
	var start string // empty = epoch floor
	if idx > 0 {
		start = sorted[idx-1].Date
	}

	var sum float64
	for _, ev := range sp.Events {
		// ISO dates compare correctly as strings
		if (start == "" || ev.Date > start) && ev.Date <= end {
			sum += ev.Hours
		}
	}
	return RoundHours(sum)
}
