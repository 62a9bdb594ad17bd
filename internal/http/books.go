package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	booksrepo "github.com/digishelf/digishelf/internal/database/books"
	"github.com/digishelf/digishelf/internal/entities"
	"github.com/digishelf/digishelf/internal/reviews"
)

// CatalogStore defines the database operations the books controller needs.
type CatalogStore interface {
	GetBookByID(id uint) (*entities.Book, error)
	ListBooks(filter booksrepo.ListFilter) ([]entities.Book, int64, error)
	CreateBook(book *entities.Book) error
	UpdateBook(book *entities.Book) error
	DeleteBook(id uint) error
	AverageRating(bookID uint) (float64, int64, error)
	BorrowCount(bookID uint) (int64, error)
	GetCatalogStats() (*booksrepo.CatalogStats, error)
	GetPopularBooks(limit int) ([]booksrepo.PopularBook, error)
}

// CategoryLister provides the seeded category list.
type CategoryLister interface {
	GetAllCategories() ([]entities.Category, error)
}

type BooksController struct {
	store      CatalogStore
	categories CategoryLister
	reviews    *reviews.Service
}

func NewBooksController(store CatalogStore, categories CategoryLister, reviewsService *reviews.Service) *BooksController {
	return &BooksController{
		store:      store,
		categories: categories,
		reviews:    reviewsService,
	}
}

// ListBooks returns the catalog with optional search and filters.
// GET /api/books
func (bc *BooksController) ListBooks(c *gin.Context) {
	limit, offset := parsePagination(c, 20)

	filter := booksrepo.ListFilter{
		Query:         c.Query("q"),
		AvailableOnly: c.Query("available") == "true",
		Limit:         limit,
		Offset:        offset,
	}
	if categoryStr := c.Query("category_id"); categoryStr != "" {
		categoryID, err := strconv.ParseUint(categoryStr, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid category_id")
			return
		}
		filter.CategoryID = uint(categoryID)
	}

	books, total, err := bc.store.ListBooks(filter)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    books,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(books)) < total,
	})
}

// GetBook returns one book with its rating, borrow count and reviews.
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetBookByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	avgRating, ratingCount, err := bc.store.AverageRating(id)
	if err != nil {
		respondInternalError(c, err, "book rating")
		return
	}
	borrowCount, err := bc.store.BorrowCount(id)
	if err != nil {
		respondInternalError(c, err, "book borrow count")
		return
	}

	response := gin.H{
		"book":         book,
		"avg_rating":   avgRating,
		"rating_count": ratingCount,
		"borrow_count": borrowCount,
	}

	if bc.reviews != nil {
		bookReviews, err := bc.reviews.ListForBook(id)
		if err != nil {
			respondInternalError(c, err, "book reviews")
			return
		}
		response["reviews"] = bookReviews
	}

	c.JSON(http.StatusOK, response)
}

// ListCategories returns all catalog categories.
// GET /api/books/categories
func (bc *BooksController) ListCategories(c *gin.Context) {
	categories, err := bc.categories.GetAllCategories()
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCatalogStats returns headline catalog numbers.
// GET /api/books/stats
func (bc *BooksController) GetCatalogStats(c *gin.Context) {
	stats, err := bc.store.GetCatalogStats()
	if err != nil {
		respondInternalError(c, err, "catalog stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetPopularBooks returns the most borrowed books.
// GET /api/books/popular
func (bc *BooksController) GetPopularBooks(c *gin.Context) {
	limit, _ := parsePagination(c, 10)
	books, err := bc.store.GetPopularBooks(limit)
	if err != nil {
		respondInternalError(c, err, "popular books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books})
}

type bookRequestBody struct {
	Title              string `json:"title" binding:"required"`
	Author             string `json:"author" binding:"required"`
	ISBN               string `json:"isbn"`
	CategoryID         uint   `json:"category_id" binding:"required"`
	Description        string `json:"description"`
	Publisher          string `json:"publisher"`
	PublicationYear    int    `json:"publication_year"`
	Pages              int    `json:"pages"`
	Quantity           int    `json:"quantity" binding:"required"`
	PDFPath            string `json:"pdf_path"`
	ReadingTimeMinutes int    `json:"reading_time_minutes"`
	CoverImage         string `json:"cover_image"`
}

// CreateBook adds a book to the catalog.
// POST /api/admin/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var body bookRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "title, author, category_id and quantity are required")
		return
	}
	if body.Quantity < 1 {
		respondBadRequest(c, "quantity must be at least 1")
		return
	}

	book := &entities.Book{
		Title:              body.Title,
		Author:             body.Author,
		ISBN:               body.ISBN,
		CategoryID:         body.CategoryID,
		Description:        body.Description,
		Publisher:          body.Publisher,
		PublicationYear:    body.PublicationYear,
		Pages:              body.Pages,
		Quantity:           body.Quantity,
		PDFPath:            body.PDFPath,
		ReadingTimeMinutes: body.ReadingTimeMinutes,
		CoverImage:         body.CoverImage,
	}
	if err := bc.store.CreateBook(book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}

	respondCreated(c, book)
}

// UpdateBook edits catalog fields. Changing quantity adjusts available
// copies by the same delta.
// PUT /api/admin/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetBookByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	var body bookRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "title, author, category_id and quantity are required")
		return
	}
	if body.Quantity < 1 {
		respondBadRequest(c, "quantity must be at least 1")
		return
	}

	book.Title = body.Title
	book.Author = body.Author
	book.ISBN = body.ISBN
	book.CategoryID = body.CategoryID
	book.Description = body.Description
	book.Publisher = body.Publisher
	book.PublicationYear = body.PublicationYear
	book.Pages = body.Pages
	book.Quantity = body.Quantity
	book.PDFPath = body.PDFPath
	book.ReadingTimeMinutes = body.ReadingTimeMinutes
	book.CoverImage = body.CoverImage

	if err := bc.store.UpdateBook(book); err != nil {
		respondInternalError(c, err, "update book")
		return
	}

	c.JSON(http.StatusOK, book)
}

// DeleteBook soft-deletes a book from the catalog.
// DELETE /api/admin/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := bc.store.GetBookByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	if err := bc.store.DeleteBook(id); err != nil {
		respondInternalError(c, err, "delete book")
		return
	}

	respondSuccess(c, "book deleted")
}
