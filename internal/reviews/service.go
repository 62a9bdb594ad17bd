// Package reviews implements book reviews: members who have borrowed a
// book may rate it once, everyone can vote on how helpful a review is.
package reviews

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

var (
	// ErrInvalidRating is returned when the rating lies outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrNotBorrowed is returned when the user has never borrowed the book.
	ErrNotBorrowed = errors.New("book was never borrowed by this user")

	// ErrAlreadyReviewed is returned when the user already reviewed the book.
	ErrAlreadyReviewed = errors.New("book already reviewed")

	// ErrReviewNotFound is returned for a missing review.
	ErrReviewNotFound = errors.New("review not found")

	// ErrNotOwner is returned when a member tries to delete someone
	// else's review.
	ErrNotOwner = errors.New("review belongs to another user")

	// ErrOwnReview is returned when a member votes on their own review.
	ErrOwnReview = errors.New("cannot vote on own review")
)

// Store is the persistence surface the review workflow needs.
type Store interface {
	CreateReview(review *entities.Review) error
	GetReviewByID(id uint) (*entities.Review, error)
	GetReviewByUserAndBook(userID, bookID uint) (*entities.Review, error)
	ListReviewsForBook(bookID uint) ([]entities.Review, error)
	HasBorrowed(userID, bookID uint) (bool, error)
	DeleteReview(id uint) error
	Vote(reviewID, userID uint, voteType entities.VoteType) (int, error)
}

// ActivityRecorder appends an entry to the activity log.
type ActivityRecorder interface {
	Record(userID *uint, action, details, ipAddress string)
}

// Service drives the review workflow.
type Service struct {
	store    Store
	activity ActivityRecorder
}

func NewService(store Store, activity ActivityRecorder) *Service {
	return &Service{store: store, activity: activity}
}

// AddReview records a member's rating of a book they have borrowed.
func (s *Service) AddReview(userID, bookID uint, rating int, text string) (*entities.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	borrowed, err := s.store.HasBorrowed(userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to check borrow history: %w", err)
	}
	if !borrowed {
		return nil, ErrNotBorrowed
	}

	_, err = s.store.GetReviewByUserAndBook(userID, bookID)
	if err == nil {
		return nil, ErrAlreadyReviewed
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}

	review := &entities.Review{
		UserID:     userID,
		BookID:     bookID,
		Rating:     rating,
		ReviewText: text,
		Status:     entities.ReviewStatusActive,
	}
	if err := s.store.CreateReview(review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.record(userID, entities.ActivityActionReviewAdded,
		fmt.Sprintf("Reviewed book #%d with rating %d", bookID, rating))

	return review, nil
}

// ReviewView is a review with reviewer context for the book page.
type ReviewView struct {
	ID           uint   `json:"id"`
	UserID       uint   `json:"user_id"`
	ReviewerName string `json:"reviewer_name"`
	Rating       int    `json:"rating"`
	ReviewText   string `json:"review_text,omitempty"`
	HelpfulCount int    `json:"helpful_count"`
	CreatedAt    string `json:"created_at"`
}

// ListForBook returns the book's reviews, most helpful first.
func (s *Service) ListForBook(bookID uint) ([]ReviewView, error) {
	reviews, err := s.store.ListReviewsForBook(bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	views := make([]ReviewView, 0, len(reviews))
	for _, review := range reviews {
		views = append(views, ReviewView{
			ID:           review.ID,
			UserID:       review.UserID,
			ReviewerName: review.User.Name,
			Rating:       review.Rating,
			ReviewText:   review.ReviewText,
			HelpfulCount: review.HelpfulCount,
			CreatedAt:    review.CreatedAt.Format("2006-01-02"),
		})
	}
	return views, nil
}

// DeleteOwn removes the member's own review.
func (s *Service) DeleteOwn(reviewID, userID uint) error {
	review, err := s.store.GetReviewByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to load review: %w", err)
	}
	if review.UserID != userID {
		return ErrNotOwner
	}
	if err := s.store.DeleteReview(reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// Vote records a helpfulness verdict and returns the fresh helpful count.
func (s *Service) Vote(reviewID, userID uint, voteType entities.VoteType) (int, error) {
	if voteType != entities.VoteTypeHelpful && voteType != entities.VoteTypeNotHelpful {
		return 0, fmt.Errorf("unknown vote type %q", voteType)
	}

	review, err := s.store.GetReviewByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrReviewNotFound
		}
		return 0, fmt.Errorf("failed to load review: %w", err)
	}
	if review.UserID == userID {
		return 0, ErrOwnReview
	}

	helpful, err := s.store.Vote(reviewID, userID, voteType)
	if err != nil {
		return 0, fmt.Errorf("failed to record vote: %w", err)
	}
	return helpful, nil
}

func (s *Service) record(userID uint, action, details string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(&userID, action, details, "")
}
