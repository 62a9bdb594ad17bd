// Package notify delivers in-app notifications, one at a time from the
// workflow or in bulk to an audience of members.
package notify

import (
	"fmt"
	"log"
	"time"

	"github.com/digishelf/digishelf/internal/entities"
)

// Store is the persistence surface notification delivery needs.
type Store interface {
	Create(notification *entities.Notification) error
	ListForUser(userID uint) ([]entities.Notification, error)
	ListUnreadForUser(userID uint) ([]entities.Notification, error)
	CountUnread(userID uint) (int64, error)
	MarkRead(notificationID, userID uint) error
	MarkAllRead(userID uint) error
	AudienceUserIDs(audience string, now time.Time) ([]uint, error)
}

// Service creates and reads notifications.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Notify delivers one notification to one user.
func (s *Service) Notify(userID uint, title, message string, notificationType entities.NotificationType, actionURL string) error {
	if notificationType == "" {
		notificationType = entities.NotificationTypeInfo
	}
	notification := &entities.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notificationType,
		ActionURL: actionURL,
	}
	if err := s.store.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// SendBulk delivers the same notification to every member of the
// audience. A failure for one recipient is logged and skipped; the send
// continues. Returns how many were delivered.
func (s *Service) SendBulk(audience, title, message string, notificationType entities.NotificationType) (int, error) {
	ids, err := s.store.AudienceUserIDs(audience, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to resolve audience %q: %w", audience, err)
	}

	sent := 0
	for _, userID := range ids {
		if err := s.Notify(userID, title, message, notificationType, ""); err != nil {
			log.Printf("Bulk notification to user %d failed: %v", userID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// ListForUser returns the user's recent notifications.
func (s *Service) ListForUser(userID uint) ([]entities.Notification, error) {
	return s.store.ListForUser(userID)
}

// ListUnread returns the user's unread notifications with the total
// unread count.
func (s *Service) ListUnread(userID uint) ([]entities.Notification, int64, error) {
	notifications, err := s.store.ListUnreadForUser(userID)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.store.CountUnread(userID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, count, nil
}

// MarkRead flags one notification as read.
func (s *Service) MarkRead(notificationID, userID uint) error {
	return s.store.MarkRead(notificationID, userID)
}

// MarkAllRead flags all of the user's notifications as read.
func (s *Service) MarkAllRead(userID uint) error {
	return s.store.MarkAllRead(userID)
}
