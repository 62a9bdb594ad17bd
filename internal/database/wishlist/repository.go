// Package wishlist provides database operations for member wishlists.
//
// # Usage
//
//	repo := wishlist.NewRepository(db)
//	items, err := repo.ListForUser(userID)
package wishlist

import (
	"errors"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

// ErrDuplicate is returned when the book is already on the user's
// wishlist.
var ErrDuplicate = errors.New("book already on wishlist")

// Repository handles all wishlist database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new wishlist repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add puts a book on the user's wishlist.
func (r *Repository) Add(userID, bookID uint) (*entities.WishlistItem, error) {
	var existing entities.WishlistItem
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicate
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item := &entities.WishlistItem{UserID: userID, BookID: bookID}
	if err := r.db.Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// ItemView is a wishlist entry with availability and rating context.
type ItemView struct {
	ID                uint    `json:"id"`
	BookID            uint    `json:"book_id"`
	Title             string  `json:"title"`
	Author            string  `json:"author"`
	AvailableQuantity int     `json:"available_quantity"`
	AvgRating         float64 `json:"avg_rating"`
	AddedAt           string  `json:"added_at"`
}

// ListForUser returns the user's wishlist, newest first.
func (r *Repository) ListForUser(userID uint) ([]ItemView, error) {
	var items []entities.WishlistItem
	err := r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		var rating struct{ Avg float64 }
		err := r.db.Model(&entities.Review{}).
			Select("COALESCE(AVG(rating), 0) AS avg").
			Where("book_id = ? AND status = ?", item.BookID, entities.ReviewStatusActive).
			Scan(&rating).Error
		if err != nil {
			return nil, err
		}

		views = append(views, ItemView{
			ID:                item.ID,
			BookID:            item.BookID,
			Title:             item.Book.Title,
			Author:            item.Book.Author,
			AvailableQuantity: item.Book.AvailableQuantity,
			AvgRating:         rating.Avg,
			AddedAt:           item.CreatedAt.Format("2006-01-02"),
		})
	}
	return views, nil
}

// Remove takes a book off the user's wishlist.
func (r *Repository) Remove(userID, bookID uint) error {
	result := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&entities.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the size of the user's wishlist.
func (r *Repository) Count(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.WishlistItem{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
