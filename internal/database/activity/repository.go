package activity

import (
	"time"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEntry appends an activity record. The log is append-only: entries
// are never updated afterwards.
func (r *Repository) LogEntry(entry *entities.ActivityLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.Create(entry).Error
}

// GetEntries retrieves paginated activity entries, most recent first.
// Pass userID 0 for all users.
func (r *Repository) GetEntries(userID uint, limit, offset int) ([]entities.ActivityLog, int64, error) {
	var entries []entities.ActivityLog
	var total int64

	query := r.db.Model(&entities.ActivityLog{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}

// GetEntriesByAction retrieves activity entries filtered by action.
func (r *Repository) GetEntriesByAction(action string, limit, offset int) ([]entities.ActivityLog, int64, error) {
	var entries []entities.ActivityLog
	var total int64

	query := r.db.Model(&entities.ActivityLog{}).Where("action = ?", action)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}

// GetRecentEntries retrieves activity entries since a specific time.
func (r *Repository) GetRecentEntries(userID uint, since time.Time) ([]entities.ActivityLog, error) {
	var entries []entities.ActivityLog
	query := r.db.Where("created_at > ?", since).Order("created_at DESC")
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Find(&entries).Error
	return entries, err
}

// DeleteOldEntries removes activity entries older than the specified
// time. Returns the number of deleted entries.
func (r *Repository) DeleteOldEntries(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.ActivityLog{})
	return result.RowsAffected, result.Error
}
