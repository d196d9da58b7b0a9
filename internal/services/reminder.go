package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/config"
	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/internal/tracking"
	"github.com/upyoung/warroom/pkg/logger"
)

// ReminderService runs the daily deadline sweep: every in_progress
// sub-project due today or overdue gets a notification to its current
// handler.
type ReminderService struct {
	db            *gorm.DB
	notifications *NotificationService
	cron          *cron.Cron
}

func NewReminderService(db *gorm.DB, notifications *NotificationService) *ReminderService {
	return &ReminderService{db: db, notifications: notifications}
}

// Start schedules the daily sweep at the configured local time (HH:MM).
func (s *ReminderService) Start(cfg *config.ReminderConfig) error {
	if !cfg.Enabled {
		logger.Info().Msg("[Reminder] daily reminder disabled")
		return nil
	}

	spec, err := cronSpecFromClock(cfg.At)
	if err != nil {
		return err
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.RunDailySweep(); err != nil {
			logger.Errorf("[Reminder] daily sweep failed: %v", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	logger.Infof("[Reminder] daily reminder scheduled at %s", cfg.At)
	return nil
}

// Stop halts the scheduler.
func (s *ReminderService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// cronSpecFromClock converts "HH:MM" to a daily cron spec.
func cronSpecFromClock(at string) (string, error) {
	parts := strings.SplitN(at, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid reminder time %q, expected HH:MM", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid reminder hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid reminder minute %q", parts[1])
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// RunDailySweep notifies every current handler whose sub-project is due
// today or overdue. Exported so an operator can trigger it manually.
func (s *ReminderService) RunDailySweep() error {
	var subs []*models.SubProject
	err := s.db.Where("status = ?", models.SubStatusInProgress).Find(&subs).Error
	if err != nil {
		return err
	}

	today := tracking.FormatDay(tracking.Today())
	for _, sp := range subs {
		if sp.EndDate == "" || sp.CurrentHandler == "" {
			continue
		}
		switch {
		case sp.EndDate == today:
			s.notifications.Send(sp.CurrentHandler, "reminder",
				fmt.Sprintf("今日截止提醒：工作「%s」今日截止，請確認進度。", sp.Title),
				sp.ParentID, sp.ID, "system")
		case sp.EndDate < today:
			days := 0
			if deadline, ok := tracking.ParseDay(sp.EndDate); ok {
				days = tracking.DaysBetween(deadline, tracking.Today())
			}
			s.notifications.Send(sp.CurrentHandler, "reminder",
				fmt.Sprintf("逾期處理提醒：工作「%s」已逾期 %d 天尚未處理完成。", sp.Title, days),
				sp.ParentID, sp.ID, "system")
		}
	}
	return nil
}
