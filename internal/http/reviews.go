package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digishelf/digishelf/internal/entities"
	"github.com/digishelf/digishelf/internal/reviews"
)

type ReviewsController struct {
	service *reviews.Service
}

func NewReviewsController(service *reviews.Service) *ReviewsController {
	return &ReviewsController{service: service}
}

type addReviewBody struct {
	Rating int    `json:"rating" binding:"required"`
	Text   string `json:"text"`
}

// AddReview creates a review for a book the caller has borrowed.
// POST /api/books/:id/reviews
func (rc *ReviewsController) AddReview(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body addReviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "rating is required")
		return
	}

	review, err := rc.service.AddReview(GetUserID(c), bookID, body.Rating, body.Text)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrInvalidRating):
			respondBadRequest(c, err.Error())
		case errors.Is(err, reviews.ErrNotBorrowed):
			respondError(c, http.StatusForbidden, "only borrowers can review a book")
		case errors.Is(err, reviews.ErrAlreadyReviewed):
			respondConflict(c, "you already reviewed this book")
		default:
			respondInternalError(c, err, "add review")
		}
		return
	}

	respondCreated(c, review)
}

// ListReviews returns a book's reviews, most helpful first.
// GET /api/books/:id/reviews
func (rc *ReviewsController) ListReviews(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bookReviews, err := rc.service.ListForBook(bookID)
	if err != nil {
		respondInternalError(c, err, "list reviews")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": bookReviews})
}

// DeleteReview removes the caller's own review.
// DELETE /api/reviews/:id
func (rc *ReviewsController) DeleteReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.service.DeleteOwn(id, GetUserID(c)); err != nil {
		switch {
		case errors.Is(err, reviews.ErrReviewNotFound):
			respondNotFound(c, "review")
		case errors.Is(err, reviews.ErrNotOwner):
			respondError(c, http.StatusForbidden, "review belongs to another user")
		default:
			respondInternalError(c, err, "delete review")
		}
		return
	}

	respondSuccess(c, "review deleted")
}

type voteBody struct {
	VoteType string `json:"vote_type" binding:"required"`
}

// Vote records a helpful / not-helpful vote on a review. Voting again
// replaces the previous vote.
// POST /api/reviews/:id/vote
func (rc *ReviewsController) Vote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body voteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "vote_type is required")
		return
	}

	helpfulCount, err := rc.service.Vote(id, GetUserID(c), entities.VoteType(body.VoteType))
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrReviewNotFound):
			respondNotFound(c, "review")
		case errors.Is(err, reviews.ErrOwnReview):
			respondError(c, http.StatusForbidden, "cannot vote on your own review")
		default:
			respondBadRequest(c, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"helpful_count": helpfulCount})
}
