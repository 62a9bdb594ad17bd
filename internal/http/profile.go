package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
	"github.com/digishelf/digishelf/internal/notify"
)

// ProfileStore is the user persistence the profile endpoints need.
type ProfileStore interface {
	GetUserByID(id uint) (*entities.User, error)
	UpdateUser(user *entities.User) error
}

// ProfileController lets a member read and edit their own account.
// Email and student ID are fixed at registration; only contact and
// study details can change here.
type ProfileController struct {
	store         ProfileStore
	notifications *notify.Service
	activity      ActivityRecorder
}

func NewProfileController(store ProfileStore, notifications *notify.Service, activity ActivityRecorder) *ProfileController {
	return &ProfileController{store: store, notifications: notifications, activity: activity}
}

// GetProfile returns the authenticated member's account.
// GET /api/profile
func (pc *ProfileController) GetProfile(c *gin.Context) {
	user, err := pc.store.GetUserByID(GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "load profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateProfileBody struct {
	Name   string `json:"name" binding:"required"`
	Phone  string `json:"phone"`
	Course string `json:"course"`
	Year   int    `json:"year"`
}

// UpdateProfile edits the member's own name, phone, course and year.
// PUT /api/profile
func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	userID := GetUserID(c)
	user, err := pc.store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "load profile")
		return
	}

	user.Name = body.Name
	user.Phone = body.Phone
	user.Course = body.Course
	user.Year = body.Year
	if err := pc.store.UpdateUser(user); err != nil {
		respondInternalError(c, err, "update profile")
		return
	}

	if pc.notifications != nil {
		// The update itself succeeded; a lost notification is not an error
		if err := pc.notifications.Notify(userID, "Profile updated",
			"Your profile information has been updated.", entities.NotificationTypeSuccess, ""); err != nil {
			log.Printf("Failed to notify profile update for user %d: %v", userID, err)
		}
	}
	if pc.activity != nil {
		pc.activity.Record(&userID, entities.ActivityActionProfileUpdated, "profile information updated", c.ClientIP())
	}

	c.JSON(http.StatusOK, user)
}
