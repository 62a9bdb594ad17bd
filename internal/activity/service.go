package activity

import (
	"log"
	"time"

	"github.com/digishelf/digishelf/internal/database/activity"
	"github.com/digishelf/digishelf/internal/entities"
)

// Service provides high-level activity logging. Writes are best-effort:
// a failed append is logged and swallowed so the workflow that triggered
// it never fails on its account.
type Service struct {
	repo *activity.Repository
}

// NewService creates a new activity service.
func NewService(repo *activity.Repository) *Service {
	return &Service{repo: repo}
}

// Record appends an activity entry in the background (non-blocking).
func (s *Service) Record(userID *uint, action, details, ipAddress string) {
	entry := &entities.ActivityLog{
		UserID:    userID,
		Action:    action,
		Details:   truncate(details, 1000),
		IPAddress: ipAddress,
		CreatedAt: time.Now(),
	}
	go func() {
		if err := s.repo.LogEntry(entry); err != nil {
			log.Printf("Failed to record activity %q: %v", action, err)
		}
	}()
}

// RecordSync appends an activity entry and reports the error. Used where
// the caller wants to know the append happened, e.g. tests.
func (s *Service) RecordSync(userID *uint, action, details, ipAddress string) error {
	return s.repo.LogEntry(&entities.ActivityLog{
		UserID:    userID,
		Action:    action,
		Details:   truncate(details, 1000),
		IPAddress: ipAddress,
		CreatedAt: time.Now(),
	})
}

// GetEntries retrieves paginated activity entries.
func (s *Service) GetEntries(userID uint, limit, offset int) ([]entities.ActivityLog, int64, error) {
	return s.repo.GetEntries(userID, limit, offset)
}

// GetRecent retrieves entries from the last given duration.
func (s *Service) GetRecent(userID uint, within time.Duration) ([]entities.ActivityLog, error) {
	return s.repo.GetRecentEntries(userID, time.Now().Add(-within))
}

// DeleteOldEntries removes entries older than the retention period.
func (s *Service) DeleteOldEntries(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEntries(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
