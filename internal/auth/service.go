// Package auth handles member registration, credential checks, JWT
// issuance, cookie sessions, and the request middleware guarding the
// API.
package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/config"
	"github.com/digishelf/digishelf/internal/entities"
)

// Validation patterns
var (
	studentIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)
	emailPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("a user with this student ID or email already exists")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrAuthRequired      = errors.New("authentication required")
	ErrNotAdmin          = errors.New("admin account required")
	ErrAccountBlocked    = errors.New("account is blocked")
	ErrAccountLocked     = errors.New("account is locked due to too many failed login attempts")
	ErrStudentIDRequired = errors.New("student ID is required")
	ErrNameRequired      = errors.New("name is required")
	ErrEmailRequired     = errors.New("email is required")
	ErrPasswordRequired  = errors.New("password is required")
	ErrStudentIDInvalid  = errors.New("student ID must be 3-50 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid      = errors.New("invalid email format")
)

// ActivityRecorder records login and registration events.
type ActivityRecorder interface {
	Record(userID *uint, action, details, ipAddress string)
}

// Service handles authentication and account lifecycle.
type Service struct {
	db       *gorm.DB
	config   config.Auth
	activity ActivityRecorder
}

// NewService creates a new authentication service. The activity
// recorder may be nil.
func NewService(db *gorm.DB, cfg config.Auth, activity ActivityRecorder) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		activity: activity,
	}
}

// RegisterInput carries a self-service member registration.
type RegisterInput struct {
	StudentID string
	Name      string
	Email     string
	Password  string
	Phone     string
	Course    string
	Year      int
}

// Register creates a new member account.
func (s *Service) Register(input RegisterInput, ipAddress string) (*entities.User, error) {
	if input.StudentID == "" {
		return nil, ErrStudentIDRequired
	}
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.Email == "" {
		return nil, ErrEmailRequired
	}
	if input.Password == "" {
		return nil, ErrPasswordRequired
	}
	if !studentIDPattern.MatchString(input.StudentID) {
		return nil, ErrStudentIDInvalid
	}
	// RFC 5321 caps addresses at 254 bytes
	if len(input.Email) > 254 || !emailPattern.MatchString(input.Email) {
		return nil, ErrEmailInvalid
	}

	var existing entities.User
	err := s.db.Where("student_id = ? OR email = ?", input.StudentID, input.Email).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(input.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		StudentID:    input.StudentID,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Phone:        input.Phone,
		Course:       input.Course,
		Year:         input.Year,
		Role:         entities.UserRoleMember,
		Status:       entities.UserStatusActive,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.record(&user.ID, entities.ActivityActionRegister, "member registered: "+user.StudentID, ipAddress)
	return user, nil
}

// Authenticate validates credentials and returns the user. Blocked
// accounts cannot log in, and repeated failures lock the account for
// the configured duration.
func (s *Service) Authenticate(email, password, ipAddress string) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("email = ? OR student_id = ?", email, email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(&user, ipAddress)
		return nil, err
	}

	if user.IsBlocked() {
		return nil, ErrAccountBlocked
	}

	now := time.Now()
	s.db.Model(&user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})

	s.record(&user.ID, entities.ActivityActionLogin, "logged in", ipAddress)
	return &user, nil
}

// AuthenticateAdmin validates credentials and additionally requires the
// admin role.
func (s *Service) AuthenticateAdmin(email, password, ipAddress string) (*entities.User, error) {
	user, err := s.Authenticate(email, password, ipAddress)
	if err != nil {
		return nil, err
	}
	if user.Role != entities.UserRoleAdmin {
		return nil, ErrNotAdmin
	}
	return user, nil
}

// recordFailedLogin increments the failed counter and locks the account
// once the configured threshold is reached.
func (s *Service) recordFailedLogin(user *entities.User, ipAddress string) {
	user.FailedLoginCount++

	updates := map[string]any{
		"failed_login_count": user.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		lockedUntil := time.Now().Add(lockoutDuration)
		updates["locked_until"] = lockedUntil
	}

	s.db.Model(user).Updates(updates)
	s.record(&user.ID, entities.ActivityActionLoginFailed, "failed login attempt", ipAddress)
}

// IssueToken signs a JWT for an authenticated user.
func (s *Service) IssueToken(user *entities.User) (string, error) {
	return IssueToken(user, s.config.SessionSecret, s.config.TokenExpiry)
}

// ValidateToken verifies a JWT and loads the account it names. Blocked
// or deleted accounts fail validation even with a valid signature.
func (s *Service) ValidateToken(tokenString string) (*entities.User, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims, err := ParseToken(tokenString, s.config.SessionSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.GetUserByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if user.IsBlocked() {
		return nil, ErrAccountBlocked
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := s.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ChangePassword updates a user's password after verifying the current
// one.
func (s *Service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.Model(user).Update("password_hash", newHash).Error
}

// HasAdmin reports whether any admin account exists.
func (s *Service) HasAdmin() (bool, error) {
	var count int64
	err := s.db.Model(&entities.User{}).Where("role = ?", entities.UserRoleAdmin).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}

// GetAuthMode returns the current authentication mode.
func (s *Service) GetAuthMode() config.AuthMode {
	return s.config.Mode
}

func (s *Service) record(userID *uint, action, details, ipAddress string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(userID, action, details, ipAddress)
}
