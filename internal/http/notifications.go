package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/notify"
)

type NotificationsController struct {
	service *notify.Service
}

func NewNotificationsController(service *notify.Service) *NotificationsController {
	return &NotificationsController{service: service}
}

// List returns the caller's notifications, newest first.
// GET /api/notifications
func (nc *NotificationsController) List(c *gin.Context) {
	notifications, err := nc.service.ListForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// ListUnread returns the caller's unread notifications and count.
// GET /api/notifications/unread
func (nc *NotificationsController) ListUnread(c *gin.Context) {
	notifications, count, err := nc.service.ListUnread(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list unread notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "unread_count": count})
}

// MarkRead marks one of the caller's notifications as read.
// POST /api/notifications/:id/read
func (nc *NotificationsController) MarkRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := nc.service.MarkRead(id, GetUserID(c)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "notification")
			return
		}
		respondInternalError(c, err, "mark notification read")
		return
	}

	respondSuccess(c, "notification marked read")
}

// MarkAllRead marks every notification of the caller as read.
// POST /api/notifications/read-all
func (nc *NotificationsController) MarkAllRead(c *gin.Context) {
	if err := nc.service.MarkAllRead(GetUserID(c)); err != nil {
		respondInternalError(c, err, "mark all notifications read")
		return
	}
	respondSuccess(c, "all notifications marked read")
}
