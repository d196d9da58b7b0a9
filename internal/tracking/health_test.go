package tracking

import (
	"testing"
	"time"

	"github.com/upyoung/warroom/internal/models"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := ParseDay(s)
	if !ok {
		t.Fatalf("bad test date %q", s)
	}
	return d
}

func TestClassify_AbortedAlwaysWins(t *testing.T) {
	// Aborted beats any date or milestone signal
	sp := &models.SubProject{
		Status:  models.SubStatusAborted,
		EndDate: "2020-01-01", // long past
		Milestones: models.MilestoneList{
			{ID: "m1", Date: "2019-12-01"},
			{ID: "m2", Date: "2020-01-01"},
		},
		FinalDelayDays: 42,
	}

	h := Classify(sp, day(t, "2024-06-01"))
	if h.Type != HealthAborted {
		t.Errorf("type = %q, expected aborted", h.Type)
	}
	if h.Days != 0 {
		t.Errorf("days = %d, expected 0", h.Days)
	}
}

func TestClassify_CompletedUsesFinalDelay(t *testing.T) {
	tests := []struct {
		name       string
		finalDelay int
		wantType   HealthType
		wantDays   int
	}{
		{"on time", 0, HealthNormal, 0},
		{"late", 5, HealthDelay, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := &models.SubProject{
				Status:         models.SubStatusCompleted,
				EndDate:        "2020-01-01",
				FinalDelayDays: tt.finalDelay,
			}
			h := Classify(sp, day(t, "2024-06-01"))
			if h.Type != tt.wantType || h.Days != tt.wantDays {
				t.Errorf("got {%s %d}, expected {%s %d}", h.Type, h.Days, tt.wantType, tt.wantDays)
			}
		})
	}
}

func TestClassify_NoEndDateIsNormal(t *testing.T) {
	sp := &models.SubProject{Status: models.SubStatusInProgress}
	h := Classify(sp, day(t, "2024-03-05"))
	if h.Type != HealthNormal || h.Days != 0 {
		t.Errorf("got {%s %d}, expected {normal 0}", h.Type, h.Days)
	}
}

func TestClassify_NonFinalMilestoneLag(t *testing.T) {
	// Scenario: end date 2024-03-10, uncompleted non-final milestone at
	// 2024-03-01, evaluated at 2024-03-05 -> lag of 4 days
	sp := &models.SubProject{
		Status:  models.SubStatusInProgress,
		EndDate: "2024-03-10",
		Milestones: models.MilestoneList{
			{ID: "m1", Date: "2024-03-01"},
			{ID: "m2", Date: "2024-03-10"},
		},
	}

	h := Classify(sp, day(t, "2024-03-05"))
	if h.Type != HealthLag {
		t.Fatalf("type = %q, expected lag", h.Type)
	}
	if h.Days != 4 {
		t.Errorf("days = %d, expected 4", h.Days)
	}
}

func TestClassify_EndDateBreachOverridesLag(t *testing.T) {
	// Same project evaluated past the end date: the breach wins
	sp := &models.SubProject{
		Status:  models.SubStatusInProgress,
		EndDate: "2024-03-10",
		Milestones: models.MilestoneList{
			{ID: "m1", Date: "2024-03-01"},
			{ID: "m2", Date: "2024-03-10"},
		},
	}

	h := Classify(sp, day(t, "2024-03-12"))
	if h.Type != HealthDelay {
		t.Fatalf("type = %q, expected delay", h.Type)
	}
	if h.Days != 2 {
		t.Errorf("days = %d, expected 2", h.Days)
	}
}

func TestClassify_FinalMilestoneNeverLags(t *testing.T) {
	// Only the final milestone is overdue; the end date itself has not
	// passed, so the project still reads normal.
	sp := &models.SubProject{
		Status:  models.SubStatusInProgress,
		EndDate: "2024-03-20",
		Milestones: models.MilestoneList{
			{ID: "m1", Date: "2024-03-01", IsCompleted: true},
			{ID: "m2", Date: "2024-03-10"},
		},
	}

	// Pretend endDate was pushed out past the final milestone date
	sp.EndDate = "2024-03-20"
	h := Classify(sp, day(t, "2024-03-12"))
	if h.Type != HealthNormal {
		t.Errorf("type = %q, expected normal (final milestone slip is not lag)", h.Type)
	}
	if h.Days != 8 {
		t.Errorf("days = %d, expected 8 remaining", h.Days)
	}
}

func TestClassify_CompletedMilestonesSkipped(t *testing.T) {
	// The earliest incomplete milestone drives lag, not the earliest overall
	sp := &models.SubProject{
		Status:  models.SubStatusInProgress,
		EndDate: "2024-04-01",
		Milestones: models.MilestoneList{
			{ID: "m2", Date: "2024-03-05"},
			{ID: "m1", Date: "2024-03-01", IsCompleted: true},
			{ID: "m3", Date: "2024-04-01"},
		},
	}

	h := Classify(sp, day(t, "2024-03-08"))
	if h.Type != HealthLag || h.Days != 3 {
		t.Errorf("got {%s %d}, expected {lag 3}", h.Type, h.Days)
	}
}

func TestDelayDays(t *testing.T) {
	tests := []struct {
		name string
		sp   models.SubProject
		want int
	}{
		{"completed uses recorded delay", models.SubProject{Status: models.SubStatusCompleted, FinalDelayDays: 3}, 3},
		{"aborted is zero", models.SubProject{Status: models.SubStatusAborted, EndDate: "2020-01-01"}, 0},
		{"running breach", models.SubProject{Status: models.SubStatusInProgress, EndDate: "2024-03-01"}, 4},
		{"running on schedule", models.SubProject{Status: models.SubStatusInProgress, EndDate: "2024-03-10"}, 0},
		{"no end date", models.SubProject{Status: models.SubStatusInProgress}, 0},
	}

	today := day(t, "2024-03-05")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DelayDays(&tt.sp, today); got != tt.want {
				t.Errorf("DelayDays = %d, expected %d", got, tt.want)
			}
		})
	}
}
