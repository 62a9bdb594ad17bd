package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	StudentID      string         `gorm:"uniqueIndex;size:50" json:"student_id"`
	Name           string         `gorm:"size:200" json:"name"`
	Email          string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash   string         `gorm:"size:100" json:"-"` // bcrypt hash, hidden from JSON
	Phone          string         `gorm:"size:20" json:"phone,omitempty"`
	Course         string         `gorm:"index;size:100" json:"course,omitempty"`
	Year           int            `json:"year,omitempty"`
	Role           UserRole       `gorm:"size:20;default:'member'" json:"role"`
	Status         UserStatus     `gorm:"index;size:20;default:'active'" json:"status"`
	BlockedReason  string         `gorm:"size:500" json:"blocked_reason,omitempty"`
	ProfilePicture string         `gorm:"size:1024" json:"profile_picture,omitempty"`
	EmailVerified  bool           `gorm:"default:false" json:"email_verified"`
	LastLoginAt    *time.Time     `json:"last_login_at,omitempty"`

	// Failed-login lockout bookkeeping, never exposed over the API.
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`

	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// IsBlocked reports whether the account is barred from logging in and
// submitting requests.
func (u *User) IsBlocked() bool {
	return u.Status == UserStatusBlocked
}
