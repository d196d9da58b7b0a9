package tracking

import (
	"testing"

	"github.com/upyoung/warroom/internal/models"
)

func TestTotalHours_CacheFastPath(t *testing.T) {
	cached := 12.5
	sp := &models.SubProject{
		TotalHours: &cached,
		Events: models.EventList{
			{Date: "2024-03-01", Hours: 99}, // cache wins over recomputation
		},
	}

	if got := TotalHours(sp); got != 12.5 {
		t.Errorf("TotalHours = %v, expected cached 12.5", got)
	}
}

func TestTotalHours_RecomputeAndRound(t *testing.T) {
	sp := &models.SubProject{
		Events: models.EventList{
			{Date: "2024-03-01", Hours: 1.25},
			{Date: "2024-03-02", Hours: 2.3},
			{Date: "2024-03-03", Hours: 0},
		},
	}

	if got := TotalHours(sp); got != 3.6 {
		t.Errorf("TotalHours = %v, expected 3.6", got)
	}
}

func TestTotalHours_Monotonic(t *testing.T) {
	// Appending an event never decreases the total
	sp := &models.SubProject{}
	prev := TotalHours(sp)
	dates := []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"}
	for i, d := range dates {
		sp.Events = append(sp.Events, models.Event{Date: d, Hours: float64(i) * 0.5})
		got := TotalHours(sp)
		if got < prev {
			t.Fatalf("total decreased after append: %v -> %v", prev, got)
		}
		prev = got
	}
}

func TestMilestoneHours_Windows(t *testing.T) {
	sp := &models.SubProject{
		Milestones: models.MilestoneList{
			{ID: "m1", Date: "2024-03-05"},
			{ID: "m2", Date: "2024-03-15"},
		},
		Events: models.EventList{
			{Date: "2024-03-01", Hours: 2},  // before m1 -> m1 bucket
			{Date: "2024-03-05", Hours: 3},  // on m1 -> m1 bucket (inclusive)
			{Date: "2024-03-06", Hours: 4},  // after m1 -> m2 bucket
			{Date: "2024-03-15", Hours: 1},  // on m2 -> m2 bucket
		},
	}

	if got := MilestoneHours(sp, "m1"); got != 5 {
		t.Errorf("m1 hours = %v, expected 5", got)
	}
	if got := MilestoneHours(sp, "m2"); got != 5 {
		t.Errorf("m2 hours = %v, expected 5", got)
	}
	if got := MilestoneHours(sp, "missing"); got != 0 {
		t.Errorf("unknown milestone hours = %v, expected 0", got)
	}
}

func TestMilestoneHours_RoundTrip(t *testing.T) {
	// With every event inside [epoch, last milestone date], per-milestone
	// buckets sum back to the total.
	sp := &models.SubProject{
		Milestones: models.MilestoneList{
			{ID: "m1", Date: "2024-03-05"},
			{ID: "m2", Date: "2024-03-10"},
			{ID: "m3", Date: "2024-03-20"},
		},
		Events: models.EventList{
			{Date: "2024-03-02", Hours: 1.5},
			{Date: "2024-03-05", Hours: 2},
			{Date: "2024-03-08", Hours: 0.5},
			{Date: "2024-03-10", Hours: 3},
			{Date: "2024-03-19", Hours: 4.5},
		},
	}

	var sum float64
	for _, m := range sp.Milestones {
		sum += MilestoneHours(sp, m.ID)
	}
	if got := RoundHours(sum); got != TotalHours(sp) {
		t.Errorf("bucket sum = %v, total = %v", got, TotalHours(sp))
	}
}

func TestRoundHours(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.24, 1.2},
		{1.25, 1.3}, // half rounds up
		{7.999, 8},
	}
	for _, tt := range tests {
		if got := RoundHours(tt.in); got != tt.want {
			t.Errorf("RoundHours(%v) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}
