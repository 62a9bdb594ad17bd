// Package notifications provides database operations for in-app
// notifications.
package notifications

import (
	"time"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

const (
	listCap   = 50
	unreadCap = 10
)

// Repository handles all notification database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notifications repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a notification.
func (r *Repository) Create(notification *entities.Notification) error {
	return r.db.Create(notification).Error
}

// ListForUser returns the user's notifications newest first, capped at 50.
func (r *Repository) ListForUser(userID uint) ([]entities.Notification, error) {
	var notifications []entities.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(listCap).
		Find(&notifications).Error
	return notifications, err
}

// ListUnreadForUser returns the user's unread notifications newest first,
// capped at 10.
func (r *Repository) ListUnreadForUser(userID uint) ([]entities.Notification, error) {
	var notifications []entities.Notification
	err := r.db.Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Limit(unreadCap).
		Find(&notifications).Error
	return notifications, err
}

// CountUnread returns how many unread notifications the user has.
func (r *Repository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flags one of the user's notifications as read.
func (r *Repository) MarkRead(notificationID, userID uint) error {
	result := r.db.Model(&entities.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of the user as read.
func (r *Repository) MarkAllRead(userID uint) error {
	return r.db.Model(&entities.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// AudienceUserIDs resolves a bulk-send audience to member IDs.
// Audiences: "all" (every member), "active" (active members only),
// "overdue" (members holding a loan past due).
func (r *Repository) AudienceUserIDs(audience string, now time.Time) ([]uint, error) {
	var ids []uint

	switch audience {
	case "overdue":
		err := r.db.Model(&entities.Transaction{}).
			Where("status = ? AND due_date < ?", entities.TransactionStatusIssued, now).
			Distinct().
			Pluck("user_id", &ids).Error
		return ids, err
	case "active":
		err := r.db.Model(&entities.User{}).
			Where("role = ? AND status = ?", entities.UserRoleMember, entities.UserStatusActive).
			Pluck("id", &ids).Error
		return ids, err
	default: // "all"
		err := r.db.Model(&entities.User{}).
			Where("role = ?", entities.UserRoleMember).
			Pluck("id", &ids).Error
		return ids, err
	}
}

// DeleteOlderThan removes read notifications created before the cutoff.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&entities.Notification{})
	return result.RowsAffected, result.Error
}
