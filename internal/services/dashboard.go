package services

import (
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/internal/tracking"
)

// DashboardService derives the read-only monitoring views. Every call
// recomputes from a fresh snapshot; the index maps are rebuilt per request
// and never cached across mutations.
type DashboardService struct {
	db       *gorm.DB
	workdays *WorkdayService
}

func NewDashboardService(db *gorm.DB, workdays *WorkdayService) *DashboardService {
	return &DashboardService{db: db, workdays: workdays}
}

// snapshot is one consistent read of the collections plus the derived
// lookup maps.
type snapshot struct {
	brands  []models.Brand
	parents []*models.Project
	subs    []*models.SubProject
	users   []models.User
	idx     *tracking.Index
}

func (s *DashboardService) loadSnapshot(includeHistory bool) (*snapshot, error) {
	snap := &snapshot{}

	if err := s.db.Order("id").Find(&snap.brands).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("status = ?", models.ParentStatusActive).
		Order("start_date").Find(&snap.parents).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("status IN ?", []string{models.SubStatusSetup, models.SubStatusInProgress}).
		Order("created_at").Find(&snap.subs).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("is_active = ?", true).Order("team, name").Find(&snap.users).Error; err != nil {
		return nil, err
	}

	if includeHistory {
		var historyParents []*models.Project
		if err := s.db.Where("status IN ?", []string{models.ParentStatusCompleted, models.ParentStatusAborted, models.ParentStatusArchived}).
			Order("start_date DESC").Limit(historyParentLimit).Find(&historyParents).Error; err != nil {
			return nil, err
		}
		snap.parents = append(snap.parents, historyParents...)

		var historySubs []*models.SubProject
		if err := s.db.Where("status IN ?", []string{models.SubStatusCompleted, models.SubStatusAborted}).
			Order("end_date DESC").Limit(historySubLimit).Find(&historySubs).Error; err != nil {
			return nil, err
		}
		snap.subs = append(snap.subs, historySubs...)
	}

	snap.idx = tracking.BuildIndex(snap.brands, snap.parents, snap.subs)
	return snap, nil
}

// MonitorItem is one row of the live monitoring board.
type MonitorItem struct {
	Brand    string             `json:"brand"`
	Parent   *models.Project    `json:"parent"`
	Sub      *models.SubProject `json:"sub"`
	Health   tracking.Health    `json:"health"`
	DaysHeld int                `json:"days_held"`
	Progress int                `json:"progress"`
	Hours    float64            `json:"hours"`
}

// Monitor lists all in_progress sub-projects sorted by parent start date,
// parent title, then sub end date, optionally narrowed to one brand and one
// health type.
func (s *DashboardService) Monitor(brandID uint, healthFilter string) ([]MonitorItem, error) {
	snap, err := s.loadSnapshot(false)
	if err != nil {
		return nil, err
	}

	today := tracking.Today()
	now := time.Now()
	items := make([]MonitorItem, 0)
	for _, p := range snap.parents {
		if brandID != 0 && p.BrandID != brandID {
			continue
		}
		for _, sp := range snap.idx.Subs(p.ID) {
			if sp.Status != models.SubStatusInProgress {
				continue
			}
			health := tracking.Classify(sp, today)
			if healthFilter != "" && healthFilter != "all" && string(health.Type) != healthFilter {
				continue
			}
			items = append(items, MonitorItem{
				Brand:    snap.idx.BrandName(p.BrandID),
				Parent:   p,
				Sub:      sp,
				Health:   health,
				DaysHeld: tracking.DaysHeld(sp, now),
				Progress: tracking.Progress(sp),
				Hours:    tracking.TotalHours(sp),
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		ad := orDefault(a.Parent.StartDate, "1970-01-01")
		bd := orDefault(b.Parent.StartDate, "1970-01-01")
		if ad != bd {
			return ad < bd
		}
		if a.Parent.Title != b.Parent.Title {
			return a.Parent.Title < b.Parent.Title
		}
		return orDefault(a.Sub.EndDate, "9999-12-31") < orDefault(b.Sub.EndDate, "9999-12-31")
	})
	return items, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ReasonCount is one entry of a delay-reason breakdown.
type ReasonCount struct {
	Reason  string `json:"reason"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// StatsResponse is the scoped summary shown at the top of the dashboard.
type StatsResponse struct {
	ActiveCount    int           `json:"active_count"`
	DelayCount     int           `json:"delay_count"`
	DelayRate      int           `json:"delay_rate"`
	TotalDelayDays int           `json:"total_delay_days"`
	Reasons        []ReasonCount `json:"reasons"`
	PeriodHours    float64       `json:"period_hours"`
}

// Stats aggregates the in_progress population and the hours logged within
// the period. Empty period bounds are open.
func (s *DashboardService) Stats(brandID uint, periodStart, periodEnd string) (*StatsResponse, error) {
	snap, err := s.loadSnapshot(false)
	if err != nil {
		return nil, err
	}

	today := tracking.Today()
	resp := &StatsResponse{}
	reasons := make(map[string]int)
	var periodHours float64

	for _, p := range snap.parents {
		if brandID != 0 && p.BrandID != brandID {
			continue
		}
		for _, sp := range snap.idx.Subs(p.ID) {
			for _, ev := range sp.Events {
				if dateInPeriod(ev.Date, periodStart, periodEnd) {
					periodHours += ev.Hours
				}
			}
			if sp.Status != models.SubStatusInProgress {
				continue
			}
			resp.ActiveCount++
			if h := tracking.Classify(sp, today); h.Type == tracking.HealthDelay {
				resp.DelayCount++
				resp.TotalDelayDays += h.Days
			}
			if sp.DelayReason != "" {
				reasons[sp.DelayReason]++
			}
		}
	}

	if resp.ActiveCount > 0 {
		resp.DelayRate = roundPercent(resp.DelayCount, resp.ActiveCount)
	}
	resp.Reasons = reasonList(reasons, resp.ActiveCount)
	resp.PeriodHours = tracking.RoundHours(periodHours)
	return resp, nil
}

func dateInPeriod(date, start, end string) bool {
	if date == "" {
		return false
	}
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}

func roundPercent(part, total int) int {
	return int(float64(part)/float64(total)*100 + 0.5)
}

func reasonList(counts map[string]int, total int) []ReasonCount {
	out := make([]ReasonCount, 0, len(counts))
	for reason, count := range counts {
		rc := ReasonCount{Reason: reason, Count: count}
		if total > 0 {
			rc.Percent = roundPercent(count, total)
		}
		out = append(out, rc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// ParentStatsResponse summarizes one parent project's children.
type ParentStatsResponse struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Hours     float64 `json:"hours"`
	Delays    int     `json:"delays"`
	MaxDelay  int     `json:"max_delay"`
	Progress  int     `json:"progress"`
}

// ParentStats aggregates all children of one parent, history included.
func (s *DashboardService) ParentStats(parentID uint) (*ParentStatsResponse, error) {
	snap, err := s.loadSnapshot(true)
	if err != nil {
		return nil, err
	}

	today := tracking.Today()
	resp := &ParentStatsResponse{}
	var hours float64
	var percentSum float64

	subs := snap.idx.Subs(parentID)
	for _, sp := range subs {
		hours += tracking.TotalHours(sp)
		h := tracking.Classify(sp, today)
		if sp.Status != models.SubStatusAborted && h.Type == tracking.HealthDelay {
			resp.Delays++
			if h.Days > resp.MaxDelay {
				resp.MaxDelay = h.Days
			}
		}
		if sp.Status == models.SubStatusCompleted {
			resp.Completed++
		}
		percentSum += float64(tracking.Progress(sp))
	}

	resp.Total = len(subs)
	resp.Hours = tracking.RoundHours(hours)
	if resp.Total > 0 {
		resp.Progress = int(percentSum/float64(resp.Total) + 0.5)
	}
	return resp, nil
}

// CalendarEvent is a deadline or milestone pinned to a calendar day.
type CalendarEvent struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Type         string `json:"type"` // deadline, milestone
	SubProjectID uint   `json:"sub_project_id"`
	ParentID     uint   `json:"parent_id"`
}

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date           string          `json:"date"`
	Day            int             `json:"day"`
	IsCurrentMonth bool            `json:"is_current_month"`
	IsToday        bool            `json:"is_today"`
	IsWorkday      bool            `json:"is_workday"`
	Events         []CalendarEvent `json:"events"`
}

// Calendar builds the week-aligned grid for a month with the member's own
// deadlines and milestones pinned to their days. "Own" means the parent
// owner, the assignee, or the current handler.
func (s *DashboardService) Calendar(year, month int, userName string) ([]CalendarDay, error) {
	snap, err := s.loadSnapshot(false)
	if err != nil {
		return nil, err
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)
	gridStart := first.AddDate(0, 0, -int(first.Weekday()))
	gridEnd := last.AddDate(0, 0, 6-int(last.Weekday()))
	todayStr := tracking.FormatDay(tracking.Today())

	var days []CalendarDay
	byDate := make(map[string]int)
	for curr := gridStart; !curr.After(gridEnd); curr = curr.AddDate(0, 0, 1) {
		iso := tracking.FormatDay(curr)
		byDate[iso] = len(days)
		days = append(days, CalendarDay{
			Date:           iso,
			Day:            curr.Day(),
			IsCurrentMonth: curr.Month() == time.Month(month),
			IsToday:        iso == todayStr,
			IsWorkday:      s.workdays.IsWorkday(curr),
			Events:         []CalendarEvent{},
		})
	}

	pin := func(date string, ev CalendarEvent) {
		if i, ok := byDate[date]; ok {
			days[i].Events = append(days[i].Events, ev)
		}
	}

	for _, p := range snap.parents {
		brandPrefix := "[" + snap.idx.BrandName(p.BrandID) + "] "
		for _, sp := range snap.idx.Subs(p.ID) {
			mine := p.Owner == userName || sp.Assignee == userName || sp.CurrentHandler == userName
			if !mine {
				continue
			}
			if sp.EndDate != "" {
				pin(sp.EndDate, CalendarEvent{
					ID:           "deadline-" + sp.EndDate,
					Title:        brandPrefix + sp.Title,
					Type:         "deadline",
					SubProjectID: sp.ID,
					ParentID:     p.ID,
				})
			}
			for _, m := range sp.Milestones {
				if m.Date == "" {
					continue
				}
				pin(m.Date, CalendarEvent{
					ID:           m.ID,
					Title:        brandPrefix + m.Title,
					Type:         "milestone",
					SubProjectID: sp.ID,
					ParentID:     p.ID,
				})
			}
		}
	}
	return days, nil
}

// MemberStat is one member's live load.
type MemberStat struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Team           string `json:"team"`
	ActiveBranches int    `json:"active_branches"`
	DelayCount     int    `json:"delay_count"`
}

// Members computes the per-member load board. Admin accounts are
// bookkeeping identities and stay off the board.
func (s *DashboardService) Members() ([]MemberStat, error) {
	snap, err := s.loadSnapshot(false)
	if err != nil {
		return nil, err
	}

	today := tracking.Today()
	var stats []MemberStat
	for _, u := range snap.users {
		if u.Role == "admin" {
			continue
		}
		stat := MemberStat{ID: u.ID, Name: u.Name, Team: u.Team}
		for _, sp := range snap.subs {
			if sp.Assignee != u.Name && sp.CurrentHandler != u.Name {
				continue
			}
			if sp.Status == models.SubStatusInProgress {
				stat.ActiveBranches++
			}
			if sp.Status != models.SubStatusAborted && tracking.Classify(sp, today).Type == tracking.HealthDelay {
				stat.DelayCount++
			}
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// MemberHours is one member's logged hours within a period.
type MemberHours struct {
	Name  string  `json:"name"`
	Team  string  `json:"team"`
	Hours float64 `json:"hours"`
}

// MemberHoursStats sums logged hours per non-admin member within the
// period, highest first. Hours logged by unknown workers are dropped.
func (s *DashboardService) MemberHoursStats(periodStart, periodEnd string) ([]MemberHours, error) {
	snap, err := s.loadSnapshot(true)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*MemberHours)
	order := make([]string, 0, len(snap.users))
	for _, u := range snap.users {
		if u.Role == "admin" {
			continue
		}
		byName[u.Name] = &MemberHours{Name: u.Name, Team: u.Team}
		order = append(order, u.Name)
	}

	for _, sp := range snap.subs {
		for _, ev := range sp.Events {
			if !dateInPeriod(ev.Date, periodStart, periodEnd) {
				continue
			}
			if m, ok := byName[ev.Worker]; ok {
				m.Hours += ev.Hours
			}
		}
	}

	out := make([]MemberHours, 0, len(order))
	for _, name := range order {
		m := byName[name]
		m.Hours = tracking.RoundHours(m.Hours)
		out = append(out, *m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hours > out[j].Hours })
	return out, nil
}

// DepartmentHours is one team's share of the period's logged hours.
type DepartmentHours struct {
	Name    string  `json:"name"`
	Hours   float64 `json:"hours"`
	Percent int     `json:"percent"`
}

// DepartmentHoursStats rolls the member hours up by team.
func (s *DashboardService) DepartmentHoursStats(periodStart, periodEnd string) ([]DepartmentHours, error) {
	members, err := s.MemberHoursStats(periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	byTeam := make(map[string]float64)
	var total float64
	for _, m := range members {
		byTeam[m.Team] += m.Hours
		total += m.Hours
	}

	out := make([]DepartmentHours, 0, len(byTeam))
	for team, hours := range byTeam {
		d := DepartmentHours{Name: team, Hours: tracking.RoundHours(hours)}
		if total > 0 {
			d.Percent = int(hours/total*100 + 0.5)
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// MemberDetailResponse is the drill-down view for one member.
type MemberDetailResponse struct {
	Name        string        `json:"name"`
	ActiveCount int           `json:"active_count"`
	DelayCount  int           `json:"delay_count"`
	TotalHours  float64       `json:"total_hours"`
	Items       []MonitorItem `json:"items"`
}

// MemberDetail lists a member's in_progress involvements with their health,
// plus the hours they have personally logged anywhere.
func (s *DashboardService) MemberDetail(name string) (*MemberDetailResponse, error) {
	snap, err := s.loadSnapshot(true)
	if err != nil {
		return nil, err
	}

	today := tracking.Today()
	now := time.Now()
	resp := &MemberDetailResponse{Name: name, Items: []MonitorItem{}}
	var hours float64

	for _, sp := range snap.subs {
		for _, ev := range sp.Events {
			if ev.Worker == name {
				hours += ev.Hours
			}
		}
		if sp.Assignee != name && sp.CurrentHandler != name {
			continue
		}
		health := tracking.Classify(sp, today)
		if sp.Status != models.SubStatusAborted && health.Type == tracking.HealthDelay {
			resp.DelayCount++
		}
		if sp.Status != models.SubStatusInProgress {
			continue
		}
		resp.ActiveCount++
		parent := snap.idx.ParentByID[sp.ParentID]
		brand := "Unknown"
		if parent != nil {
			brand = snap.idx.BrandName(parent.BrandID)
		}
		resp.Items = append(resp.Items, MonitorItem{
			Brand:    brand,
			Parent:   parent,
			Sub:      sp,
			Health:   health,
			DaysHeld: tracking.DaysHeld(sp, now),
			Progress: tracking.Progress(sp),
			Hours:    tracking.TotalHours(sp),
		})
	}

	resp.TotalHours = tracking.RoundHours(hours)
	return resp, nil
}

// TaskItem is one entry of the personal to-do list with its next target.
type TaskItem struct {
	Brand       string             `json:"brand"`
	Parent      *models.Project    `json:"parent"`
	Sub         *models.SubProject `json:"sub"`
	TargetDate  string             `json:"target_date"`
	TargetLabel string             `json:"target_label"`
	IsMilestone bool               `json:"is_milestone"`
	DaysHeld    int                `json:"days_held"`
}

// MyTasks lists the in_progress sub-projects the member currently holds,
// nearest target first; ties go to whoever has sat on the ball longest.
func (s *DashboardService) MyTasks(userName string) ([]TaskItem, error) {
	snap, err := s.loadSnapshot(false)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]TaskItem, 0)
	for _, p := range snap.parents {
		for _, sp := range snap.idx.Subs(p.ID) {
			if sp.CurrentHandler != userName || sp.Status != models.SubStatusInProgress {
				continue
			}

			item := TaskItem{
				Brand:       snap.idx.BrandName(p.BrandID),
				Parent:      p,
				Sub:         sp,
				TargetDate:  orDefault(sp.EndDate, "9999-12-31"),
				TargetLabel: "專案截止",
				DaysHeld:    tracking.DaysHeld(sp, now),
			}
			for _, m := range tracking.SortedMilestones(sp.Milestones) {
				if !m.IsCompleted {
					item.TargetDate = m.Date
					item.TargetLabel = m.Title
					item.IsMilestone = true
					break
				}
			}
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].TargetDate != items[j].TargetDate {
			return items[i].TargetDate < items[j].TargetDate
		}
		return items[i].DaysHeld > items[j].DaysHeld
	})
	return items, nil
}
