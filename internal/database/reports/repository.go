// Package reports runs the date-ranged queries behind the admin report
// exports.
package reports

import (
	"time"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

// Repository runs report queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reports repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CirculationRow is one loan inside a circulation report range.
type CirculationRow struct {
	TransactionID uint
	StudentID     string
	MemberName    string
	BookTitle     string
	IssueDate     time.Time
	DueDate       time.Time
	ReturnDate    *time.Time
	Status        entities.TransactionStatus
	FineAmount    float64
}

// Circulation returns every loan issued inside [from, to], oldest first.
func (r *Repository) Circulation(from, to time.Time) ([]CirculationRow, error) {
	var rows []CirculationRow
	err := r.db.Model(&entities.Transaction{}).
		Select(`transactions.id AS transaction_id,
			users.student_id AS student_id,
			users.name AS member_name,
			books.title AS book_title,
			transactions.issue_date,
			transactions.due_date,
			transactions.return_date,
			transactions.status,
			transactions.fine_amount`).
		Joins("JOIN users ON users.id = transactions.user_id").
		Joins("JOIN books ON books.id = transactions.book_id").
		Where("transactions.issue_date BETWEEN ? AND ?", from, to).
		Order("transactions.issue_date ASC").
		Scan(&rows).Error
	return rows, err
}

// MemberActivityRow is one member's borrowing behaviour in a range.
type MemberActivityRow struct {
	StudentID    string
	MemberName   string
	Email        string
	LoansTaken   int64
	LoansClosed  int64
	FinesAccrued float64
}

// MemberActivity aggregates borrowing per member over [from, to],
// busiest members first. Members with no loans in the range are
// omitted.
func (r *Repository) MemberActivity(from, to time.Time) ([]MemberActivityRow, error) {
	var rows []MemberActivityRow
	err := r.db.Model(&entities.Transaction{}).
		Select(`users.student_id AS student_id,
			users.name AS member_name,
			users.email AS email,
			COUNT(*) AS loans_taken,
			SUM(CASE WHEN transactions.status = 'returned' THEN 1 ELSE 0 END) AS loans_closed,
			COALESCE(SUM(transactions.fine_amount), 0) AS fines_accrued`).
		Joins("JOIN users ON users.id = transactions.user_id").
		Where("transactions.issue_date BETWEEN ? AND ?", from, to).
		Group("users.id").
		Order("loans_taken DESC").
		Scan(&rows).Error
	return rows, err
}

// ReadingTrendRow is one calendar day of reading activity.
type ReadingTrendRow struct {
	Day          string
	Sessions     int64
	Readers      int64
	PagesRead    int64
	MinutesSpent int64
}

// ReadingTrends aggregates closed reading sessions per calendar day
// over [from, to], oldest day first.
func (r *Repository) ReadingTrends(from, to time.Time) ([]ReadingTrendRow, error) {
	var rows []ReadingTrendRow
	err := r.db.Model(&entities.ReadingSession{}).
		Select(`date(start_time) AS day,
			COUNT(*) AS sessions,
			COUNT(DISTINCT user_id) AS readers,
			COALESCE(SUM(pages_read), 0) AS pages_read,
			CAST(ROUND(COALESCE(SUM((julianday(end_time) - julianday(start_time)) * 24 * 60), 0)) AS INTEGER) AS minutes_spent`).
		Where("end_time IS NOT NULL AND start_time BETWEEN ? AND ?", from, to).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

// OverdueRow is one currently-overdue loan.
type OverdueRow struct {
	TransactionID uint
	StudentID     string
	MemberName    string
	Email         string
	BookTitle     string
	DueDate       time.Time
}

// CurrentlyOverdue returns every open loan past its due date at the
// given instant, most overdue first.
func (r *Repository) CurrentlyOverdue(now time.Time) ([]OverdueRow, error) {
	var rows []OverdueRow
	err := r.db.Model(&entities.Transaction{}).
		Select(`transactions.id AS transaction_id,
			users.student_id AS student_id,
			users.name AS member_name,
			users.email AS email,
			books.title AS book_title,
			transactions.due_date`).
		Joins("JOIN users ON users.id = transactions.user_id").
		Joins("JOIN books ON books.id = transactions.book_id").
		Where("transactions.status = ? AND transactions.due_date < ?", entities.TransactionStatusIssued, now).
		Order("transactions.due_date ASC").
		Scan(&rows).Error
	return rows, err
}
