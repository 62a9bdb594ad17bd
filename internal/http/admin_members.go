package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/auth"
	usersrepo "github.com/digishelf/digishelf/internal/database/users"
	"github.com/digishelf/digishelf/internal/entities"
)

// MemberStore defines the database operations for member administration.
type MemberStore interface {
	CreateUser(user *entities.User) error
	GetUserByID(id uint) (*entities.User, error)
	GetUserByEmail(email string) (*entities.User, error)
	GetUserByStudentID(studentID string) (*entities.User, error)
	UpdateUser(user *entities.User) error
	SetStatus(userID uint, status entities.UserStatus, reason string) error
	DeleteUser(userID uint) error
	ListMembers(filter usersrepo.MemberFilter) ([]usersrepo.MemberSummary, int64, error)
	GetMemberDetail(userID uint) (*usersrepo.MemberDetail, error)
	ListCourses() ([]string, error)
}

// ActivityRecorder records admin actions against member accounts.
type ActivityRecorder interface {
	Record(userID *uint, action, details, ipAddress string)
}

type AdminMembersController struct {
	store    MemberStore
	activity ActivityRecorder
}

func NewAdminMembersController(store MemberStore, activity ActivityRecorder) *AdminMembersController {
	return &AdminMembersController{store: store, activity: activity}
}

// ListMembers returns member accounts with lending aggregates.
// GET /api/admin/members
func (amc *AdminMembersController) ListMembers(c *gin.Context) {
	limit, offset := parsePagination(c, 20)

	filter := usersrepo.MemberFilter{
		Query:  c.Query("q"),
		Course: c.Query("course"),
		Limit:  limit,
		Offset: offset,
	}
	if status := c.Query("status"); status != "" {
		filter.Status = entities.UserStatus(status)
	}

	members, total, err := amc.store.ListMembers(filter)
	if err != nil {
		respondInternalError(c, err, "list members")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    members,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(members)) < total,
	})
}

type createMemberBody struct {
	StudentID string `json:"student_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Phone     string `json:"phone"`
	Course    string `json:"course"`
	Year      int    `json:"year"`
}

// CreateMember registers a member at the desk. A temporary password is
// generated and returned once; the member should change it on first login.
// POST /api/admin/members
func (amc *AdminMembersController) CreateMember(c *gin.Context) {
	var body createMemberBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "student_id, name and email are required")
		return
	}

	if _, err := amc.store.GetUserByEmail(body.Email); err == nil {
		respondConflict(c, "an account with that email already exists")
		return
	}
	if _, err := amc.store.GetUserByStudentID(body.StudentID); err == nil {
		respondConflict(c, "an account with that student ID already exists")
		return
	}

	tempPassword := uuid.NewString()[:12]
	hash, err := auth.HashPassword(tempPassword, 0)
	if err != nil {
		respondInternalError(c, err, "hash temporary password")
		return
	}

	user := entities.User{
		StudentID:    body.StudentID,
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: hash,
		Phone:        body.Phone,
		Course:       body.Course,
		Year:         body.Year,
		Role:         entities.UserRoleMember,
		Status:       entities.UserStatusActive,
	}
	if err := amc.store.CreateUser(&user); err != nil {
		respondInternalError(c, err, "create member")
		return
	}

	amc.record(c, user.ID, entities.ActivityActionRegister, "account created by admin")

	respondCreated(c, gin.H{"user": user, "temporary_password": tempPassword})
}

// GetMember returns a member with their loans, requests, sessions and
// reviews.
// GET /api/admin/members/:id
func (amc *AdminMembersController) GetMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := amc.store.GetMemberDetail(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "member")
			return
		}
		respondInternalError(c, err, "get member")
		return
	}

	c.JSON(http.StatusOK, detail)
}

type updateMemberBody struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Course string `json:"course"`
	Year   int    `json:"year"`
}

// UpdateMember edits a member's profile fields.
// PUT /api/admin/members/:id
func (amc *AdminMembersController) UpdateMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := amc.store.GetUserByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "member")
			return
		}
		respondInternalError(c, err, "get member")
		return
	}

	var body updateMemberBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if body.Name != "" {
		user.Name = body.Name
	}
	if body.Phone != "" {
		user.Phone = body.Phone
	}
	if body.Course != "" {
		user.Course = body.Course
	}
	if body.Year != 0 {
		user.Year = body.Year
	}

	if err := amc.store.UpdateUser(user); err != nil {
		respondInternalError(c, err, "update member")
		return
	}

	c.JSON(http.StatusOK, user)
}

type blockBody struct {
	Reason string `json:"reason" binding:"required"`
}

// BlockMember bars a member from logging in and borrowing.
// POST /api/admin/members/:id/block
func (amc *AdminMembersController) BlockMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body blockBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "reason is required")
		return
	}

	if err := amc.store.SetStatus(id, entities.UserStatusBlocked, body.Reason); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "member")
			return
		}
		respondInternalError(c, err, "block member")
		return
	}

	amc.record(c, id, entities.ActivityActionMemberBlocked, "blocked: "+body.Reason)
	respondSuccess(c, "member blocked")
}

// UnblockMember restores a blocked member.
// POST /api/admin/members/:id/unblock
func (amc *AdminMembersController) UnblockMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := amc.store.SetStatus(id, entities.UserStatusActive, ""); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "member")
			return
		}
		respondInternalError(c, err, "unblock member")
		return
	}

	respondSuccess(c, "member unblocked")
}

// DeleteMember removes a member account. Members with books still
// issued cannot be deleted.
// DELETE /api/admin/members/:id
func (amc *AdminMembersController) DeleteMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := amc.store.GetUserByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "member")
			return
		}
		respondInternalError(c, err, "get member")
		return
	}

	if err := amc.store.DeleteUser(id); err != nil {
		if errors.Is(err, usersrepo.ErrHasOpenLoans) {
			respondConflict(c, "member still has books issued")
			return
		}
		respondInternalError(c, err, "delete member")
		return
	}

	respondSuccess(c, "member deleted")
}

// ListCourses returns the distinct courses members belong to.
// GET /api/admin/members/courses
func (amc *AdminMembersController) ListCourses(c *gin.Context) {
	courses, err := amc.store.ListCourses()
	if err != nil {
		respondInternalError(c, err, "list courses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (amc *AdminMembersController) record(c *gin.Context, memberID uint, action, details string) {
	if amc.activity == nil {
		return
	}
	amc.activity.Record(&memberID, action, details, c.ClientIP())
}
