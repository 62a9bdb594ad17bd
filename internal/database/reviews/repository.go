// Package reviews provides database operations for book reviews and
// helpfulness voting.
package reviews

import (
	"errors"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

// Repository handles all review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reviews repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateReview persists a new review.
func (r *Repository) CreateReview(review *entities.Review) error {
	return r.db.Create(review).Error
}

// GetReviewByID retrieves a review.
func (r *Repository) GetReviewByID(id uint) (*entities.Review, error) {
	var review entities.Review
	err := r.db.Preload("User").Preload("Book").First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetReviewByUserAndBook returns the user's review for the book, if any.
func (r *Repository) GetReviewByUserAndBook(userID, bookID uint) (*entities.Review, error) {
	var review entities.Review
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListReviewsForBook returns the book's active reviews with reviewer
// context, most helpful first.
func (r *Repository) ListReviewsForBook(bookID uint) ([]entities.Review, error) {
	var reviews []entities.Review
	err := r.db.Preload("User").
		Where("book_id = ? AND status = ?", bookID, entities.ReviewStatusActive).
		Order("helpful_count DESC, created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

// HasBorrowed reports whether the user has ever had the book issued.
func (r *Repository) HasBorrowed(userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Transaction{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}

// DeleteReview removes a review and its votes.
func (r *Repository) DeleteReview(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&entities.ReviewVote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Review{}, id).Error
	})
}

// Vote records the user's verdict on a review, replacing any earlier vote,
// and recomputes the review's helpful count in the same transaction.
func (r *Repository) Vote(reviewID, userID uint, voteType entities.VoteType) (int, error) {
	var helpful int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var review entities.Review
		if err := tx.First(&review, reviewID).Error; err != nil {
			return err
		}

		var existing entities.ReviewVote
		err := tx.Where("review_id = ? AND user_id = ?", reviewID, userID).First(&existing).Error
		switch {
		case err == nil:
			existing.VoteType = voteType
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := entities.ReviewVote{ReviewID: reviewID, UserID: userID, VoteType: voteType}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
		default:
			return err
		}

		err = tx.Model(&entities.ReviewVote{}).
			Where("review_id = ? AND vote_type = ?", reviewID, entities.VoteTypeHelpful).
			Count(&helpful).Error
		if err != nil {
			return err
		}

		return tx.Model(&entities.Review{}).
			Where("id = ?", reviewID).
			Update("helpful_count", helpful).Error
	})
	if err != nil {
		return 0, err
	}
	return int(helpful), nil
}
