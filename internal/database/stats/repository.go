// Package stats provides the aggregate queries behind the member
// dashboard and the admin analytics screens.
package stats

import (
	"time"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

// Repository runs dashboard aggregate queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new stats repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UserStats summarizes one member's account for their dashboard.
type UserStats struct {
	BorrowedNow     int64   `json:"borrowed_now"`
	TotalBorrowed   int64   `json:"total_borrowed"`
	OverdueNow      int64   `json:"overdue_now"`
	UnpaidFines     float64 `json:"unpaid_fines"`
	PendingRequests int64   `json:"pending_requests"`
	ReviewsWritten  int64   `json:"reviews_written"`
	WishlistSize    int64   `json:"wishlist_size"`
}

// GetUserStats assembles a member's headline numbers.
func (r *Repository) GetUserStats(userID uint, now time.Time) (*UserStats, error) {
	var stats UserStats

	err := r.db.Model(&entities.Transaction{}).
		Where("user_id = ? AND status = ?", userID, entities.TransactionStatusIssued).
		Count(&stats.BorrowedNow).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.Transaction{}).
		Where("user_id = ?", userID).
		Count(&stats.TotalBorrowed).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.Transaction{}).
		Where("user_id = ? AND status = ? AND due_date < ?", userID, entities.TransactionStatusIssued, now).
		Count(&stats.OverdueNow).Error
	if err != nil {
		return nil, err
	}

	var fines struct{ Total float64 }
	err = r.db.Model(&entities.Transaction{}).
		Select("COALESCE(SUM(fine_amount), 0) AS total").
		Where("user_id = ? AND fine_amount > 0 AND fine_paid = ?", userID, false).
		Scan(&fines).Error
	if err != nil {
		return nil, err
	}
	stats.UnpaidFines = fines.Total

	err = r.db.Model(&entities.BookRequest{}).
		Where("user_id = ? AND status = ?", userID, entities.RequestStatusPending).
		Count(&stats.PendingRequests).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.Review{}).
		Where("user_id = ?", userID).
		Count(&stats.ReviewsWritten).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.WishlistItem{}).
		Where("user_id = ?", userID).
		Count(&stats.WishlistSize).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// LibraryStats summarizes the whole library for the admin dashboard.
type LibraryStats struct {
	TotalBooks      int64 `json:"total_books"`
	TotalMembers    int64 `json:"total_members"`
	ActiveMembers   int64 `json:"active_members"`
	BooksIssued     int64 `json:"books_issued"`
	BooksOverdue    int64 `json:"books_overdue"`
	PendingRequests int64 `json:"pending_requests"`
}

// GetLibraryStats assembles the admin headline numbers.
func (r *Repository) GetLibraryStats(now time.Time) (*LibraryStats, error) {
	var stats LibraryStats

	err := r.db.Model(&entities.Book{}).
		Where("status = ?", entities.BookStatusActive).
		Count(&stats.TotalBooks).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.User{}).
		Where("role = ?", entities.UserRoleMember).
		Count(&stats.TotalMembers).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.User{}).
		Where("role = ? AND status = ?", entities.UserRoleMember, entities.UserStatusActive).
		Count(&stats.ActiveMembers).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.Transaction{}).
		Where("status = ?", entities.TransactionStatusIssued).
		Count(&stats.BooksIssued).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.Transaction{}).
		Where("status = ? AND due_date < ?", entities.TransactionStatusIssued, now).
		Count(&stats.BooksOverdue).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entities.BookRequest{}).
		Where("status = ?", entities.RequestStatusPending).
		Count(&stats.PendingRequests).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// MonthCount is one month of a time series.
type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}

// UserGrowthByMonth returns member signups per month over the last n
// months, oldest first.
func (r *Repository) UserGrowthByMonth(months int) ([]MonthCount, error) {
	if months <= 0 {
		months = 12
	}
	var series []MonthCount
	err := r.db.Model(&entities.User{}).
		Select("strftime('%Y-%m', created_at) AS month, COUNT(*) AS count").
		Where("role = ?", entities.UserRoleMember).
		Group("month").
		Order("month DESC").
		Limit(months).
		Scan(&series).Error
	if err != nil {
		return nil, err
	}
	reverse(series)
	return series, nil
}

// CirculationByMonth returns issues per month over the last n months,
// oldest first.
func (r *Repository) CirculationByMonth(months int) ([]MonthCount, error) {
	if months <= 0 {
		months = 12
	}
	var series []MonthCount
	err := r.db.Model(&entities.Transaction{}).
		Select("strftime('%Y-%m', issue_date) AS month, COUNT(*) AS count").
		Group("month").
		Order("month DESC").
		Limit(months).
		Scan(&series).Error
	if err != nil {
		return nil, err
	}
	reverse(series)
	return series, nil
}

// CategoryShare is one category's slice of the collection.
type CategoryShare struct {
	Category string `json:"category"`
	Books    int64  `json:"books"`
	Loans    int64  `json:"loans"`
}

// CategoryDistribution returns per-category book and loan counts.
func (r *Repository) CategoryDistribution() ([]CategoryShare, error) {
	var shares []CategoryShare
	err := r.db.Model(&entities.Category{}).
		Select(`categories.name AS category,
			COUNT(DISTINCT books.id) AS books,
			COUNT(transactions.id) AS loans`).
		Joins("LEFT JOIN books ON books.category_id = categories.id AND books.status = ?", entities.BookStatusActive).
		Joins("LEFT JOIN transactions ON transactions.book_id = books.id").
		Group("categories.name").
		Order("loans DESC").
		Scan(&shares).Error
	return shares, err
}

// PerformanceMetrics are derived circulation quality numbers.
type PerformanceMetrics struct {
	AvgLoanDays      float64 `json:"avg_loan_days"` // Mean days between issue and return
	OnTimeRate       float64 `json:"on_time_rate"`  // Share of closed loans returned on time
	FinesCollected   float64 `json:"fines_collected"`
	FinesOutstanding float64 `json:"fines_outstanding"`
}

// GetPerformanceMetrics computes circulation quality numbers over closed
// loans.
func (r *Repository) GetPerformanceMetrics() (*PerformanceMetrics, error) {
	var metrics PerformanceMetrics

	var loan struct {
		AvgDays float64
		Total   int64
		OnTime  int64
	}
	err := r.db.Model(&entities.Transaction{}).
		Select(`COALESCE(AVG(julianday(return_date) - julianday(issue_date)), 0) AS avg_days,
			COUNT(*) AS total,
			SUM(CASE WHEN return_date <= due_date THEN 1 ELSE 0 END) AS on_time`).
		Where("status = ?", entities.TransactionStatusReturned).
		Scan(&loan).Error
	if err != nil {
		return nil, err
	}
	metrics.AvgLoanDays = loan.AvgDays
	if loan.Total > 0 {
		metrics.OnTimeRate = float64(loan.OnTime) / float64(loan.Total)
	}

	var fines struct {
		Collected   float64
		Outstanding float64
	}
	err = r.db.Model(&entities.Transaction{}).
		Select(`COALESCE(SUM(CASE WHEN fine_paid THEN fine_amount ELSE 0 END), 0) AS collected,
			COALESCE(SUM(CASE WHEN NOT fine_paid THEN fine_amount ELSE 0 END), 0) AS outstanding`).
		Where("fine_amount > 0").
		Scan(&fines).Error
	if err != nil {
		return nil, err
	}
	metrics.FinesCollected = fines.Collected
	metrics.FinesOutstanding = fines.Outstanding

	return &metrics, nil
}

func reverse(series []MonthCount) {
	for i, j := 0, len(series)-1; i < j; i, j = i+1, j-1 {
		series[i], series[j] = series[j], series[i]
	}
}
