package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/internal/tracking"
	"github.com/upyoung/warroom/pkg/response"
)

// HandoffService drives the sub-project lifecycle: work-log events, handler
// transfer, milestone completion and closure. A late final milestone is not
// committed directly; the intended changes are stashed until the handler
// supplies a delay reason, and nothing is persisted in between.
type HandoffService struct {
	db            *gorm.DB
	notifications *NotificationService

	mu      sync.Mutex
	pending map[uint]*pendingCompletion
}

// pendingCompletion holds the rolled-back closure waiting for a delay
// reason. Keyed per sub-project, process-local.
type pendingCompletion struct {
	FinalDelayDays int
	Event          models.Event
	MilestoneID    string
	NextHandler    string
}

func NewHandoffService(db *gorm.DB, notifications *NotificationService) *HandoffService {
	return &HandoffService{
		db:            db,
		notifications: notifications,
		pending:       make(map[uint]*pendingCompletion),
	}
}

type RecordEventRequest struct {
	Date               string  `json:"date" binding:"required"`
	Hours              float64 `json:"hours"`
	Description        string  `json:"description"`
	NextAssignee       string  `json:"next_assignee" binding:"required"`
	MatchedMilestoneID string  `json:"matched_milestone_id"`
}

type RecordEventResult struct {
	PendingDelay   bool               `json:"pending_delay"`
	FinalDelayDays int                `json:"final_delay_days,omitempty"`
	Completed      bool               `json:"completed"`
	SubProject     *models.SubProject `json:"sub_project,omitempty"`
}

type ResolveDelayRequest struct {
	Reason string `json:"reason" binding:"required"`
	Remark string `json:"remark"`
}

// RecordEvent appends a work-log entry for the current handler. The full
// validation chain runs before anything is touched; the first failing check
// rejects the call with zero mutation. On a late final-milestone match the
// changes are stashed instead of committed and the result reports
// PendingDelay.
func (s *HandoffService) RecordEvent(subID uint, caller string, req *RecordEventRequest) (*RecordEventResult, error) {
	sp, err := s.load(subID)
	if err != nil {
		return nil, err
	}
	if sp.IsClosed() {
		return nil, response.NewConflict("sub-project is closed")
	}
	if sp.CurrentHandler != caller {
		return nil, response.NewForbidden("only the current handler can record an event")
	}

	if sp.StartDate != "" && req.Date < sp.StartDate {
		return nil, response.NewBadRequest(
			fmt.Sprintf("event date (%s) cannot precede the sub-project start date (%s)", req.Date, sp.StartDate))
	}
	if last, ok := tracking.LatestEventDate(sp.Events); ok && req.Date < last {
		return nil, response.NewBadRequest(
			fmt.Sprintf("event date (%s) cannot precede the latest logged date (%s)", req.Date, last))
	}

	final, hasFinal := tracking.FinalMilestone(sp.Milestones)
	closesFinal := hasFinal && req.MatchedMilestoneID == final.ID
	if closesFinal && req.NextAssignee != caller {
		return nil, response.NewBadRequest("the final milestone closes the project and cannot be handed off; set yourself as the next handler")
	}

	event := models.Event{
		ID:                 "ev" + uuid.NewString(),
		Date:               req.Date,
		Hours:              req.Hours,
		Worker:             caller,
		Description:        req.Description,
		MatchedMilestoneID: req.MatchedMilestoneID,
	}
	isHandoff := req.NextAssignee != caller
	if isHandoff {
		event.HandoffTo = req.NextAssignee
	}

	// Intended state, built on copies. Nothing below touches sp or the
	// database until the single commit at the end.
	events := cloneEvents(sp.Events)
	events = append(events, event)
	milestones := cloneMilestones(sp.Milestones)
	total := tracking.RoundHours(tracking.SumEventHours(events))

	if req.MatchedMilestoneID != "" {
		completeMilestone(milestones, req.MatchedMilestoneID, req.Date)
	}

	updates := map[string]interface{}{
		"events":          events,
		"current_handler": req.NextAssignee,
		"milestones":      milestones,
		"total_hours":     total,
	}

	completed := false
	if closesFinal {
		finalDelay := 0
		if deadline, ok := tracking.ParseDay(sp.EndDate); ok {
			if evDate, ok := tracking.ParseDay(req.Date); ok {
				finalDelay = tracking.DaysBetween(deadline, evDate)
			}
		}
		if finalDelay > 0 {
			// Late closure: stash the intended changes and wait for the
			// delay reason. Nothing is persisted.
			s.mu.Lock()
			s.pending[sp.ID] = &pendingCompletion{
				FinalDelayDays: finalDelay,
				Event:          event,
				MilestoneID:    req.MatchedMilestoneID,
				NextHandler:    req.NextAssignee,
			}
			s.mu.Unlock()
			return &RecordEventResult{PendingDelay: true, FinalDelayDays: finalDelay}, nil
		}
		completed = true
		updates["status"] = models.SubStatusCompleted
		updates["final_delay_days"] = 0
		updates["completed_date"] = req.Date
	}

	if isHandoff {
		updates["last_handoff_date"] = req.Date
	}

	if err := s.db.Model(&models.SubProject{ID: sp.ID}).Updates(updates).Error; err != nil {
		return nil, err
	}

	if isHandoff {
		s.notifications.Send(req.NextAssignee, "handoff",
			fmt.Sprintf("收到工作交接: %s", sp.Title),
			sp.ParentID, sp.ID, caller)
	}

	updated, err := s.load(subID)
	if err != nil {
		return nil, err
	}
	return &RecordEventResult{Completed: completed, SubProject: updated}, nil
}

// ResolveDelayCompletion replays the stashed closure with the supplied
// delay reason and commits it, moving the sub-project to completed. Fails
// if no closure is pending for this sub-project.
func (s *HandoffService) ResolveDelayCompletion(subID uint, caller string, req *ResolveDelayRequest) (*models.SubProject, error) {
	s.mu.Lock()
	stash, ok := s.pending[subID]
	s.mu.Unlock()
	if !ok {
		return nil, response.NewConflict("no pending delay completion for this sub-project")
	}

	sp, err := s.load(subID)
	if err != nil {
		return nil, err
	}
	if sp.CurrentHandler != caller {
		return nil, response.NewForbidden("only the current handler can resolve the delay completion")
	}

	events := cloneEvents(sp.Events)
	events = append(events, stash.Event)
	milestones := cloneMilestones(sp.Milestones)
	completeMilestone(milestones, stash.MilestoneID, stash.Event.Date)
	total := tracking.RoundHours(tracking.SumEventHours(events))

	updates := map[string]interface{}{
		"events":           events,
		"current_handler":  stash.NextHandler,
		"milestones":       milestones,
		"total_hours":      total,
		"status":           models.SubStatusCompleted,
		"final_delay_days": stash.FinalDelayDays,
		"delay_reason":     req.Reason,
		"delay_remark":     req.Remark,
		"completed_date":   stash.Event.Date,
	}
	if err := s.db.Model(&models.SubProject{ID: sp.ID}).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.pending, subID)
	s.mu.Unlock()

	return s.load(subID)
}

// PendingDelay reports the stashed delay days for a sub-project, if any.
func (s *HandoffService) PendingDelay(subID uint) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stash, ok := s.pending[subID]; ok {
		return stash.FinalDelayDays, true
	}
	return 0, false
}

// Abort closes a sub-project as aborted with a reason. Irreversible.
func (s *HandoffService) Abort(subID uint, req *ResolveDelayRequest) (*models.SubProject, error) {
	sp, err := s.load(subID)
	if err != nil {
		return nil, err
	}
	if sp.IsClosed() {
		return nil, response.NewConflict("sub-project is already " + sp.Status)
	}

	updates := map[string]interface{}{
		"status":       models.SubStatusAborted,
		"delay_reason": req.Reason,
		"delay_remark": req.Remark,
	}
	if err := s.db.Model(&models.SubProject{ID: sp.ID}).Updates(updates).Error; err != nil {
		return nil, err
	}

	// An aborted sub-project can never resolve a stashed closure.
	s.mu.Lock()
	delete(s.pending, subID)
	s.mu.Unlock()

	return s.load(subID)
}

// ManagerCheckStart logs the handover to offline manager review and freezes
// the days-held counter. Orthogonal to status; the sub-project stays
// in_progress.
func (s *HandoffService) ManagerCheckStart(subID uint, caller string) (*models.SubProject, error) {
	sp, err := s.load(subID)
	if err != nil {
		return nil, err
	}
	if sp.IsClosed() {
		return nil, response.NewConflict("sub-project is closed")
	}
	if sp.CurrentHandler != caller {
		return nil, response.NewForbidden("only the current handler can start a manager check")
	}
	if sp.IsWaitingForManager {
		return nil, response.NewConflict("a manager check is already in progress")
	}

	today := tracking.FormatDay(tracking.Today())
	events := cloneEvents(sp.Events)
	events = append(events, models.Event{
		ID:          "ev" + uuid.NewString(),
		Date:        today,
		Hours:       0,
		Worker:      caller,
		Description: "[開始] 提交主管線下確認（系統暫停計時）",
	})

	updates := map[string]interface{}{
		"events":                   events,
		"is_waiting_for_manager":   true,
		"manager_check_start_date": today,
	}
	if err := s.db.Model(&models.SubProject{ID: sp.ID}).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.load(subID)
}

// ManagerCheckFinish closes the pending manager check, logs the elapsed
// calendar days and restarts days-held accounting from today.
func (s *HandoffService) ManagerCheckFinish(subID uint, caller string) (*models.SubProject, error) {
	sp, err := s.load(subID)
	if err != nil {
		return nil, err
	}
	if !sp.IsWaitingForManager {
		return nil, response.NewConflict("no manager check in progress")
	}

	today := tracking.FormatDay(tracking.Today())
	startStr := sp.ManagerCheckStartDate
	if startStr == "" {
		startStr = today
	}
	elapsed := 0
	if start, ok := tracking.ParseDay(startStr); ok {
		elapsed = tracking.DaysBetween(start, tracking.Today())
		if elapsed < 0 {
			elapsed = -elapsed
		}
	}
	duration := "同日完成"
	if elapsed > 0 {
		duration = fmt.Sprintf("%d 天", elapsed)
	}

	events := cloneEvents(sp.Events)
	events = append(events, models.Event{
		ID:          "ev" + uuid.NewString(),
		Date:        today,
		Hours:       0,
		Worker:      caller,
		Description: fmt.Sprintf("[結束] 主管確認完成（耗時: %s）", duration),
	})

	updates := map[string]interface{}{
		"events":                   events,
		"is_waiting_for_manager":   false,
		"manager_check_start_date": "",
		"last_handoff_date":        today,
	}
	if err := s.db.Model(&models.SubProject{ID: sp.ID}).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.load(subID)
}

func (s *HandoffService) load(subID uint) (*models.SubProject, error) {
	var sp models.SubProject
	if err := s.db.First(&sp, subID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("sub-project not found")
		}
		return nil, err
	}
	return &sp, nil
}

func cloneEvents(events models.EventList) models.EventList {
	out := make(models.EventList, len(events))
	copy(out, events)
	return out
}

func cloneMilestones(ms models.MilestoneList) models.MilestoneList {
	out := make(models.MilestoneList, len(ms))
	copy(out, ms)
	return out
}

// completeMilestone marks the matched milestone as done and records how far
// off plan it landed (negative = early).
func completeMilestone(ms models.MilestoneList, id, completedDate string) {
	for i := range ms {
		if ms[i].ID != id {
			continue
		}
		ms[i].IsCompleted = true
		ms[i].CompletedDate = completedDate
		if planned, ok := tracking.ParseDay(ms[i].Date); ok {
			if actual, ok := tracking.ParseDay(completedDate); ok {
				diff := tracking.DaysBetween(planned, actual)
				ms[i].DiffDays = &diff
			}
		}
		return
	}
}
