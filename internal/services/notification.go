package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/pkg/logger"
	"github.com/upyoung/warroom/pkg/response"
)

// NotificationService persists in-app notifications and pushes them out.
// The row is written synchronously; delivery to connected clients goes
// through the task queue so a Redis outage never loses the record.
type NotificationService struct {
	db    *gorm.DB
	queue TaskQueue
	hub   *SSEHub
}

func NewNotificationService(db *gorm.DB, queue TaskQueue, hub *SSEHub) *NotificationService {
	return &NotificationService{db: db, queue: queue, hub: hub}
}

// Send creates a notification for a recipient and schedules delivery.
// Failures are logged, never surfaced: a lost notification must not fail
// the mutation that triggered it.
func (s *NotificationService) Send(recipient, ntype, message string, projectID, subProjectID uint, sender string) {
	n := models.Notification{
		Recipient:    recipient,
		Type:         ntype,
		Message:      message,
		ProjectID:    projectID,
		SubProjectID: subProjectID,
		Sender:       sender,
	}
	if err := s.db.Create(&n).Error; err != nil {
		logger.Errorf("[Notification] failed to persist notification for %s: %v", recipient, err)
		return
	}

	if s.queue == nil {
		s.deliver(&n)
		return
	}
	if err := s.queue.Enqueue(&NotificationTask{NotificationID: n.ID, Recipient: recipient}); err != nil {
		logger.Errorf("[Notification] enqueue failed, delivering inline: %v", err)
		s.deliver(&n)
	}
}

// Deliver loads a persisted notification and publishes it on the SSE hub.
// Used as the task queue processor.
func (s *NotificationService) Deliver(ctx context.Context, task *NotificationTask) error {
	var n models.Notification
	if err := s.db.First(&n, task.NotificationID).Error; err != nil {
		return err
	}
	s.deliver(&n)
	return nil
}

func (s *NotificationService) deliver(n *models.Notification) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(NotificationEvent{
		ID:           n.ID,
		Recipient:    n.Recipient,
		Type:         n.Type,
		Message:      n.Message,
		ProjectID:    n.ProjectID,
		SubProjectID: n.SubProjectID,
		Sender:       n.Sender,
		Time:         n.CreatedAt.Format(time.RFC3339),
	})
}

// List returns a member's notifications, newest first.
func (s *NotificationService) List(recipient string) ([]models.Notification, error) {
	var items []models.Notification
	if err := s.db.Where("recipient = ?", recipient).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UnreadCount returns the number of unread notifications for a member.
func (s *NotificationService) UnreadCount(recipient string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient = ? AND read = ?", recipient, false).
		Count(&count).Error
	return count, err
}

// MarkRead flags one notification as read. Members can only touch their
// own.
func (s *NotificationService) MarkRead(id uint, recipient string) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND recipient = ?", id, recipient).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("notification not found")
	}
	return nil
}

// ClearAll deletes every notification addressed to the member.
func (s *NotificationService) ClearAll(recipient string) error {
	return s.db.Where("recipient = ?", recipient).Delete(&models.Notification{}).Error
}
