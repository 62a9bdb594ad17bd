package entities

import "time"

type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
	NotificationTypeError   NotificationType = "error"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index" json:"user_id"`
	Title     string           `gorm:"size:200" json:"title"`
	Message   string           `gorm:"size:1000" json:"message"`
	Type      NotificationType `gorm:"size:20;default:'info'" json:"type"`
	ActionURL string           `gorm:"size:500" json:"action_url,omitempty"`
	IsRead    bool             `gorm:"index;default:false" json:"is_read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
