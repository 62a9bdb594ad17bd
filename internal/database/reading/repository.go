// Package reading provides database operations for reading-session
// tracking.
package reading

import (
	"time"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

// Repository handles all reading-session database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reading repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateSession persists a new session.
func (r *Repository) CreateSession(session *entities.ReadingSession) error {
	return r.db.Create(session).Error
}

// GetSessionByID retrieves a session.
func (r *Repository) GetSessionByID(id uint) (*entities.ReadingSession, error) {
	var session entities.ReadingSession
	err := r.db.First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetOpenSession returns the user's dangling open session for the book,
// if one exists.
func (r *Repository) GetOpenSession(userID, bookID uint) (*entities.ReadingSession, error) {
	var session entities.ReadingSession
	err := r.db.Where("user_id = ? AND book_id = ? AND end_time IS NULL", userID, bookID).
		Order("start_time DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSession saves changes to a session.
func (r *Repository) UpdateSession(session *entities.ReadingSession) error {
	return r.db.Save(session).Error
}

// LatestSessionForBook returns the user's most recent session for the
// book, open or closed.
func (r *Repository) LatestSessionForBook(userID, bookID uint) (*entities.ReadingSession, error) {
	var session entities.ReadingSession
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).
		Order("start_time DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessionsForUser returns the user's sessions newest first.
func (r *Repository) ListSessionsForUser(userID uint, limit int) ([]entities.ReadingSession, error) {
	query := r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var sessions []entities.ReadingSession
	err := query.Find(&sessions).Error
	return sessions, err
}

// FinishedSessionDays returns the distinct calendar days (YYYY-MM-DD, in
// UTC as stored) on which the user finished a session, newest first.
func (r *Repository) FinishedSessionDays(userID uint) ([]string, error) {
	var days []string
	err := r.db.Model(&entities.ReadingSession{}).
		Where("user_id = ? AND end_time IS NOT NULL", userID).
		Distinct().
		Order("1 DESC").
		Pluck("date(end_time)", &days).Error
	return days, err
}

// MonthlyStat aggregates one calendar month of closed sessions.
type MonthlyStat struct {
	Month        string `json:"month"` // YYYY-MM
	Sessions     int64  `json:"sessions"`
	PagesRead    int64  `json:"pages_read"`
	MinutesSpent int64  `json:"minutes_spent"`
}

// MonthlyStats returns per-month totals for the user's closed sessions,
// most recent month first.
func (r *Repository) MonthlyStats(userID uint, months int) ([]MonthlyStat, error) {
	if months <= 0 {
		months = 6
	}
	var stats []MonthlyStat
	err := r.db.Model(&entities.ReadingSession{}).
		Select(`strftime('%Y-%m', start_time) AS month,
			COUNT(*) AS sessions,
			COALESCE(SUM(pages_read), 0) AS pages_read,
			CAST(ROUND(COALESCE(SUM((julianday(end_time) - julianday(start_time)) * 24 * 60), 0)) AS INTEGER) AS minutes_spent`).
		Where("user_id = ? AND end_time IS NOT NULL", userID).
		Group("month").
		Order("month DESC").
		Limit(months).
		Scan(&stats).Error
	return stats, err
}

// CategoryStat aggregates closed sessions by book category.
type CategoryStat struct {
	Category  string `json:"category"`
	Sessions  int64  `json:"sessions"`
	PagesRead int64  `json:"pages_read"`
}

// StatsByCategory returns the user's closed-session totals grouped by the
// book's category, most read first.
func (r *Repository) StatsByCategory(userID uint) ([]CategoryStat, error) {
	var stats []CategoryStat
	err := r.db.Model(&entities.ReadingSession{}).
		Select(`categories.name AS category,
			COUNT(reading_sessions.id) AS sessions,
			COALESCE(SUM(reading_sessions.pages_read), 0) AS pages_read`).
		Joins("JOIN books ON books.id = reading_sessions.book_id").
		Joins("JOIN categories ON categories.id = books.category_id").
		Where("reading_sessions.user_id = ? AND reading_sessions.end_time IS NOT NULL", userID).
		Group("categories.name").
		Order("pages_read DESC").
		Scan(&stats).Error
	return stats, err
}

// CurrentMonthTotals returns the user's closed-session count and pages for
// the month containing now.
func (r *Repository) CurrentMonthTotals(userID uint, now time.Time) (sessions int64, pages int64, err error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var totals struct {
		Sessions int64
		Pages    int64
	}
	err = r.db.Model(&entities.ReadingSession{}).
		Select("COUNT(*) AS sessions, COALESCE(SUM(pages_read), 0) AS pages").
		Where("user_id = ? AND end_time IS NOT NULL AND start_time >= ?", userID, monthStart).
		Scan(&totals).Error
	return totals.Sessions, totals.Pages, err
}
