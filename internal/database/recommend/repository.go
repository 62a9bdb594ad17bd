// Package recommend provides the catalog queries behind book
// recommendations.
package recommend

import (
	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

// Repository handles recommendation queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new recommend repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// TopCategoriesForUser returns the category IDs of the user's returned
// loans, most borrowed first.
func (r *Repository) TopCategoriesForUser(userID uint, limit int) ([]uint, error) {
	if limit <= 0 {
		limit = 3
	}
	var ids []uint
	err := r.db.Model(&entities.Transaction{}).
		Select("books.category_id").
		Joins("JOIN books ON books.id = transactions.book_id").
		Where("transactions.user_id = ? AND transactions.status = ?", userID, entities.TransactionStatusReturned).
		Group("books.category_id").
		Order("COUNT(transactions.id) DESC").
		Limit(limit).
		Pluck("books.category_id", &ids).Error
	return ids, err
}

// Candidate is a recommendable book with its ranking signals.
type Candidate struct {
	BookID      uint    `json:"book_id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Category    string  `json:"category"`
	AvgRating   float64 `json:"avg_rating"`
	BorrowCount int64   `json:"borrow_count"`
}

// AvailableInCategories returns available, active books from the given
// categories that the user has never borrowed, best rated first with
// circulation as the tiebreaker.
func (r *Repository) AvailableInCategories(userID uint, categoryIDs []uint, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 10
	}
	var candidates []Candidate
	err := r.candidateQuery().
		Where("books.category_id IN ?", categoryIDs).
		Where("books.id NOT IN (?)",
			r.db.Model(&entities.Transaction{}).Select("book_id").Where("user_id = ?", userID)).
		Order("avg_rating DESC, borrow_count DESC").
		Limit(limit).
		Scan(&candidates).Error
	return candidates, err
}

// MostBorrowed returns the most circulated available books the user has
// never borrowed. A zero userID skips the exclusion.
func (r *Repository) MostBorrowed(userID uint, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 10
	}
	query := r.candidateQuery()
	if userID > 0 {
		query = query.Where("books.id NOT IN (?)",
			r.db.Model(&entities.Transaction{}).Select("book_id").Where("user_id = ?", userID))
	}
	var candidates []Candidate
	err := query.
		Order("borrow_count DESC, avg_rating DESC").
		Limit(limit).
		Scan(&candidates).Error
	return candidates, err
}

func (r *Repository) candidateQuery() *gorm.DB {
	return r.db.Model(&entities.Book{}).
		Select(`books.id AS book_id, books.title, books.author, categories.name AS category,
			COALESCE(AVG(reviews.rating), 0) AS avg_rating,
			COUNT(DISTINCT transactions.id) AS borrow_count`).
		Joins("LEFT JOIN categories ON categories.id = books.category_id").
		Joins("LEFT JOIN reviews ON reviews.book_id = books.id AND reviews.status = ?", entities.ReviewStatusActive).
		Joins("LEFT JOIN transactions ON transactions.book_id = books.id").
		Where("books.status = ? AND books.available_quantity > 0", entities.BookStatusActive).
		Group("books.id")
}
