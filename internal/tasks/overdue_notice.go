package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/digishelf/digishelf/internal/entities"
)

// Notifier delivers an in-app notification to a member.
type Notifier interface {
	Notify(userID uint, title, message string, notificationType entities.NotificationType, actionURL string) error
}

// OverdueNoticeTask notifies a member that one of their loans is past due.
// One task is enqueued per overdue loan by the daily scan.
type OverdueNoticeTask struct {
	TransactionID uint      `json:"transaction_id"`
	UserID        uint      `json:"user_id"`
	BookTitle     string    `json:"book_title"`
	DueDate       time.Time `json:"due_date"`
	DaysLate      int       `json:"days_late"`
}

// Config returns the queue configuration for overdue notices.
func (t OverdueNoticeTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_notice",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueNoticeProcessor creates a processor function for OverdueNoticeTask.
func OverdueNoticeProcessor(notifier Notifier) backlite.QueueProcessor[OverdueNoticeTask] {
	return func(ctx context.Context, task OverdueNoticeTask) error {
		if notifier == nil {
			return fmt.Errorf("notifier not configured")
		}

		message := fmt.Sprintf("%q was due on %s and is now %d day(s) overdue. Please return it to avoid further fines.",
			task.BookTitle, task.DueDate.Format("Jan 2, 2006"), task.DaysLate)
		if err := notifier.Notify(task.UserID, "Book overdue", message, entities.NotificationTypeWarning, "/api/loans"); err != nil {
			return fmt.Errorf("overdue notice for transaction %d: %w", task.TransactionID, err)
		}

		log.Printf("[TASK] Sent overdue notice to user %d for transaction %d (%d days late)",
			task.UserID, task.TransactionID, task.DaysLate)
		return nil
	}
}

// NewOverdueNoticeQueue creates a backlite queue for overdue notices.
func NewOverdueNoticeQueue(notifier Notifier) backlite.Queue {
	return backlite.NewQueue(OverdueNoticeProcessor(notifier))
}
