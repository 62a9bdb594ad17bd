// Package books provides database operations for catalog management.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(123)
package books

import (
	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Query         string // Matches title, author or ISBN, case-insensitive
	CategoryID    uint
	AvailableOnly bool
	Limit         int
	Offset        int
}

// GetBookByID retrieves a book with its category.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Category").First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns active catalog entries matching the filter, plus the
// total count before pagination.
func (r *Repository) ListBooks(filter ListFilter) ([]entities.Book, int64, error) {
	query := r.db.Model(&entities.Book{}).Where("status = ?", entities.BookStatusActive)

	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query = query.Where(
			"LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?) OR isbn LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.AvailableOnly {
		query = query.Where("available_quantity > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Category").Order("title ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var books []entities.Book
	err := query.Find(&books).Error
	return books, total, err
}

// CreateBook adds a catalog entry. AvailableQuantity starts at the full
// quantity unless the caller set it explicitly lower.
func (r *Repository) CreateBook(book *entities.Book) error {
	if book.AvailableQuantity == 0 && book.Quantity > 0 {
		book.AvailableQuantity = book.Quantity
	}
	if book.Status == "" {
		book.Status = entities.BookStatusActive
	}
	return r.db.Create(book).Error
}

// UpdateBook saves catalog fields. Quantity changes adjust availability by
// the same delta, clamped to [0, quantity], so copies out on loan stay
// accounted for.
func (r *Repository) UpdateBook(book *entities.Book) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var current entities.Book
		if err := tx.First(&current, book.ID).Error; err != nil {
			return err
		}

		delta := book.Quantity - current.Quantity
		book.AvailableQuantity = current.AvailableQuantity + delta
		if book.AvailableQuantity < 0 {
			book.AvailableQuantity = 0
		}
		if book.AvailableQuantity > book.Quantity {
			book.AvailableQuantity = book.Quantity
		}

		return tx.Save(book).Error
	})
}

// DeleteBook soft-deletes a catalog entry.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Delete(&entities.Book{}, id).Error
}

// AverageRating returns the mean active-review rating and review count for
// a book. Zero mean when unreviewed.
func (r *Repository) AverageRating(bookID uint) (float64, int64, error) {
	var result struct {
		Avg   float64
		Count int64
	}
	err := r.db.Model(&entities.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("book_id = ? AND status = ?", bookID, entities.ReviewStatusActive).
		Scan(&result).Error
	return result.Avg, result.Count, err
}

// BorrowCount returns how many times the book has been issued, ever.
func (r *Repository) BorrowCount(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Transaction{}).
		Where("book_id = ?", bookID).
		Count(&count).Error
	return count, err
}

// CatalogStats summarizes the collection.
type CatalogStats struct {
	TotalBooks      int64 `json:"total_books"`
	TotalCopies     int64 `json:"total_copies"`
	AvailableCopies int64 `json:"available_copies"`
	TotalCategories int64 `json:"total_categories"`
}

// GetCatalogStats returns collection-wide totals over active books.
func (r *Repository) GetCatalogStats() (*CatalogStats, error) {
	var stats CatalogStats

	err := r.db.Model(&entities.Book{}).
		Where("status = ?", entities.BookStatusActive).
		Count(&stats.TotalBooks).Error
	if err != nil {
		return nil, err
	}

	var sums struct {
		TotalCopies     int64
		AvailableCopies int64
	}
	err = r.db.Model(&entities.Book{}).
		Select("COALESCE(SUM(quantity), 0) AS total_copies, COALESCE(SUM(available_quantity), 0) AS available_copies").
		Where("status = ?", entities.BookStatusActive).
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	stats.TotalCopies = sums.TotalCopies
	stats.AvailableCopies = sums.AvailableCopies

	err = r.db.Model(&entities.Category{}).Count(&stats.TotalCategories).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// PopularBook is a catalog entry ranked by circulation.
type PopularBook struct {
	BookID      uint    `json:"book_id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	BorrowCount int64   `json:"borrow_count"`
	AvgRating   float64 `json:"avg_rating"`
}

// GetPopularBooks returns the most-borrowed books, most circulated first.
func (r *Repository) GetPopularBooks(limit int) ([]PopularBook, error) {
	if limit <= 0 {
		limit = 10
	}
	var popular []PopularBook
	err := r.db.Model(&entities.Book{}).
		Select(`books.id AS book_id, books.title, books.author,
			COUNT(DISTINCT transactions.id) AS borrow_count,
			COALESCE(AVG(reviews.rating), 0) AS avg_rating`).
		Joins("LEFT JOIN transactions ON transactions.book_id = books.id").
		Joins("LEFT JOIN reviews ON reviews.book_id = books.id AND reviews.status = ?", entities.ReviewStatusActive).
		Where("books.status = ?", entities.BookStatusActive).
		Group("books.id").
		Order("borrow_count DESC, avg_rating DESC").
		Limit(limit).
		Scan(&popular).Error
	return popular, err
}
