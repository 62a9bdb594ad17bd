package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/digishelf/digishelf/internal/entities"
)

// BulkSender fans a notification out to an audience of members.
type BulkSender interface {
	SendBulk(audience, title, message string, notificationType entities.NotificationType) (int, error)
}

// BulkNotificationTask delivers an announcement to every member of an
// audience. Fan-out happens in the worker so large audiences do not block
// the admin request.
type BulkNotificationTask struct {
	Audience string `json:"audience"` // all, active or overdue
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
}

// Config returns the queue configuration for bulk notifications.
func (t BulkNotificationTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "bulk_notification",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// BulkNotificationProcessor creates a processor function for BulkNotificationTask.
func BulkNotificationProcessor(sender BulkSender) backlite.QueueProcessor[BulkNotificationTask] {
	return func(ctx context.Context, task BulkNotificationTask) error {
		if sender == nil {
			return fmt.Errorf("bulk sender not configured")
		}

		notificationType := entities.NotificationTypeInfo
		switch entities.NotificationType(task.Type) {
		case entities.NotificationTypeSuccess, entities.NotificationTypeWarning, entities.NotificationTypeError:
			notificationType = entities.NotificationType(task.Type)
		}

		sent, err := sender.SendBulk(task.Audience, task.Title, task.Message, notificationType)
		if err != nil {
			return fmt.Errorf("bulk notification to %s: %w", task.Audience, err)
		}

		log.Printf("[TASK] Sent bulk notification %q to %d member(s) (%s)", task.Title, sent, task.Audience)
		return nil
	}
}

// NewBulkNotificationQueue creates a backlite queue for bulk notifications.
func NewBulkNotificationQueue(sender BulkSender) backlite.Queue {
	return backlite.NewQueue(BulkNotificationProcessor(sender))
}
