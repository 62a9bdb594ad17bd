package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// ActivityLogCleaner provides the ability to delete old activity log entries.
type ActivityLogCleaner interface {
	DeleteOldEntries(retention time.Duration) (int64, error)
}

// CleanupActivityLogsTask removes activity log entries older than the
// configured retention period.
type CleanupActivityLogsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for activity log cleanup tasks.
func (t CleanupActivityLogsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_activity_logs",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupActivityLogsProcessor creates a processor function for CleanupActivityLogsTask.
func CleanupActivityLogsProcessor(cleaner ActivityLogCleaner) backlite.QueueProcessor[CleanupActivityLogsTask] {
	return func(ctx context.Context, task CleanupActivityLogsTask) error {
		if cleaner == nil {
			return fmt.Errorf("activity log cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 90
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		deleted, err := cleaner.DeleteOldEntries(retention)
		if err != nil {
			return fmt.Errorf("cleanup activity logs: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d activity log entries older than %d days", deleted, retentionDays)
		return nil
	}
}

// NewCleanupActivityLogsQueue creates a backlite queue for activity log cleanup.
func NewCleanupActivityLogsQueue(cleaner ActivityLogCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupActivityLogsProcessor(cleaner))
}
