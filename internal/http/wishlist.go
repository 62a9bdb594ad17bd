package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	wishlistrepo "github.com/digishelf/digishelf/internal/database/wishlist"
	"github.com/digishelf/digishelf/internal/entities"
)

// WishlistStore defines database operations for wishlist management.
type WishlistStore interface {
	Add(userID, bookID uint) (*entities.WishlistItem, error)
	ListForUser(userID uint) ([]wishlistrepo.ItemView, error)
	Remove(userID, bookID uint) error
	Count(userID uint) (int64, error)
}

type WishlistController struct {
	store WishlistStore
}

func NewWishlistController(store WishlistStore) *WishlistController {
	return &WishlistController{store: store}
}

type wishlistBody struct {
	BookID uint `json:"book_id" binding:"required"`
}

// Add puts a book on the caller's wishlist.
// POST /api/wishlist
func (wc *WishlistController) Add(c *gin.Context) {
	var body wishlistBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	item, err := wc.store.Add(GetUserID(c), body.BookID)
	if err != nil {
		if errors.Is(err, wishlistrepo.ErrDuplicate) {
			respondConflict(c, "book already on wishlist")
			return
		}
		respondInternalError(c, err, "add to wishlist")
		return
	}

	respondCreated(c, item)
}

// List returns the caller's wishlist with availability and ratings.
// GET /api/wishlist
func (wc *WishlistController) List(c *gin.Context) {
	items, err := wc.store.ListForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list wishlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// Remove takes a book off the caller's wishlist.
// DELETE /api/wishlist/:bookId
func (wc *WishlistController) Remove(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	if err := wc.store.Remove(GetUserID(c), bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "wishlist item")
			return
		}
		respondInternalError(c, err, "remove from wishlist")
		return
	}

	respondSuccess(c, "removed from wishlist")
}
