// Package users provides database operations for member management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByEmail(email)
package users

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

// ErrHasOpenLoans is returned when deleting a member who still has books
// issued.
var ErrHasOpenLoans = errors.New("member has books issued")

// Repository handles all member database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser persists a new member or admin account.
func (r *Repository) CreateUser(user *entities.User) error {
	return r.db.Create(user).Error
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *Repository) GetUserByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByStudentID retrieves a user by their student ID.
func (r *Repository) GetUserByStudentID(studentID string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("student_id = ?", studentID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser saves changes to a user record.
func (r *Repository) UpdateUser(user *entities.User) error {
	return r.db.Save(user).Error
}

// UpdateLastLogin stamps the user's last successful login.
func (r *Repository) UpdateLastLogin(userID uint, at time.Time) error {
	return r.db.Model(&entities.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

// SetStatus blocks or unblocks an account with an optional reason.
func (r *Repository) SetStatus(userID uint, status entities.UserStatus, reason string) error {
	result := r.db.Model(&entities.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"status":         status,
			"blocked_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUser soft-deletes a member. Refused while the member still has
// books issued.
func (r *Repository) DeleteUser(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var openLoans int64
		err := tx.Model(&entities.Transaction{}).
			Where("user_id = ? AND status = ?", userID, entities.TransactionStatusIssued).
			Count(&openLoans).Error
		if err != nil {
			return err
		}
		if openLoans > 0 {
			return ErrHasOpenLoans
		}
		return tx.Delete(&entities.User{}, userID).Error
	})
}

// MemberFilter narrows member listings.
type MemberFilter struct {
	Query  string // Matches name, email or student ID
	Status entities.UserStatus
	Course string
	Limit  int
	Offset int
}

// MemberSummary is a member row with lending aggregates for the admin
// screen.
type MemberSummary struct {
	entities.User
	BorrowedCount int64   `json:"borrowed_count"`
	TotalBorrowed int64   `json:"total_borrowed"`
	UnpaidFines   float64 `json:"unpaid_fines"`
}

// ListMembers returns member accounts matching the filter with their
// borrow and fine aggregates, plus the total count before pagination.
func (r *Repository) ListMembers(filter MemberFilter) ([]MemberSummary, int64, error) {
	query := r.db.Model(&entities.User{}).Where("role = ?", entities.UserRoleMember)

	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query = query.Where(
			"LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR student_id LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Course != "" {
		query = query.Where("course = ?", filter.Course)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []entities.User
	listQuery := query.Order("name ASC")
	if filter.Limit > 0 {
		listQuery = listQuery.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		listQuery = listQuery.Offset(filter.Offset)
	}
	if err := listQuery.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	summaries := make([]MemberSummary, 0, len(users))
	for _, user := range users {
		summary := MemberSummary{User: user}

		err := r.db.Model(&entities.Transaction{}).
			Where("user_id = ? AND status = ?", user.ID, entities.TransactionStatusIssued).
			Count(&summary.BorrowedCount).Error
		if err != nil {
			return nil, 0, err
		}

		err = r.db.Model(&entities.Transaction{}).
			Where("user_id = ?", user.ID).
			Count(&summary.TotalBorrowed).Error
		if err != nil {
			return nil, 0, err
		}

		var fines struct{ Total float64 }
		err = r.db.Model(&entities.Transaction{}).
			Select("COALESCE(SUM(fine_amount), 0) AS total").
			Where("user_id = ? AND fine_amount > 0 AND fine_paid = ?", user.ID, false).
			Scan(&fines).Error
		if err != nil {
			return nil, 0, err
		}
		summary.UnpaidFines = fines.Total

		summaries = append(summaries, summary)
	}

	return summaries, total, nil
}

// MemberDetail bundles everything the admin member page shows.
type MemberDetail struct {
	User     entities.User             `json:"user"`
	Loans    []entities.Transaction    `json:"loans"`
	Requests []entities.BookRequest    `json:"requests"`
	Sessions []entities.ReadingSession `json:"sessions"`
	Reviews  []entities.Review         `json:"reviews"`
}

// GetMemberDetail loads a member with their borrowing history, requests,
// recent reading sessions and reviews.
func (r *Repository) GetMemberDetail(userID uint) (*MemberDetail, error) {
	var detail MemberDetail

	if err := r.db.First(&detail.User, userID).Error; err != nil {
		return nil, err
	}

	err := r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("issue_date DESC").
		Find(&detail.Loans).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("request_date DESC").
		Find(&detail.Requests).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Limit(20).
		Find(&detail.Sessions).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&detail.Reviews).Error
	if err != nil {
		return nil, err
	}

	return &detail, nil
}

// ListCourses returns the distinct courses members belong to.
func (r *Repository) ListCourses() ([]string, error) {
	var courses []string
	err := r.db.Model(&entities.User{}).
		Where("role = ? AND course != ''", entities.UserRoleMember).
		Distinct().
		Order("course ASC").
		Pluck("course", &courses).Error
	return courses, err
}
