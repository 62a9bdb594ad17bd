package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digishelf/digishelf/internal/database"
	booksrepo "github.com/digishelf/digishelf/internal/database/books"
	"github.com/digishelf/digishelf/internal/entities"
)

func setupBooksTestDB(t *testing.T) (*database.Database, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_books_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func booksTestRouter(db *database.Database) *gin.Engine {
	controller := NewBooksController(booksrepo.NewRepository(db.DB), db, nil)
	router := gin.New()
	router.GET("/api/books", controller.ListBooks)
	router.GET("/api/books/categories", controller.ListCategories)
	router.GET("/api/books/:id", controller.GetBook)
	router.POST("/api/admin/books", controller.CreateBook)
	router.PUT("/api/admin/books/:id", controller.UpdateBook)
	router.DELETE("/api/admin/books/:id", controller.DeleteBook)
	return router
}

func TestBooksController_CreateAndGet(t *testing.T) {
	db, cleanup := setupBooksTestDB(t)
	defer cleanup()
	router := booksTestRouter(db)

	body, _ := json.Marshal(map[string]any{
		"title":       "Dune",
		"author":      "Frank Herbert",
		"isbn":        "9780441013593",
		"category_id": 1,
		"quantity":    3,
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/admin/books", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 3, created.AvailableQuantity)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "book")
	assert.Contains(t, response, "avg_rating")
	assert.Contains(t, response, "borrow_count")
}

func TestBooksController_CreateValidation(t *testing.T) {
	db, cleanup := setupBooksTestDB(t)
	defer cleanup()
	router := booksTestRouter(db)

	// Missing required fields
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/admin/books", strings.NewReader(`{"title":"Dune"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBooksController_ListWithSearch(t *testing.T) {
	db, cleanup := setupBooksTestDB(t)
	defer cleanup()
	repo := booksrepo.NewRepository(db.DB)
	require.NoError(t, repo.CreateBook(&entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "1", CategoryID: 1, Quantity: 2}))
	require.NoError(t, repo.CreateBook(&entities.Book{Title: "Cosmos", Author: "Carl Sagan", ISBN: "2", CategoryID: 3, Quantity: 1}))
	router := booksTestRouter(db)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books?q=dune", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data  []entities.Book `json:"data"`
		Total int64           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(1), response.Total)
	require.Len(t, response.Data, 1)
	assert.Equal(t, "Dune", response.Data[0].Title)
}

func TestBooksController_GetNotFound(t *testing.T) {
	db, cleanup := setupBooksTestDB(t)
	defer cleanup()
	router := booksTestRouter(db)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books/999", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooksController_ListCategories(t *testing.T) {
	db, cleanup := setupBooksTestDB(t)
	defer cleanup()
	router := booksTestRouter(db)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books/categories", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Categories []entities.Category `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Categories)
}

func TestBooksController_UpdateAdjustsAvailability(t *testing.T) {
	db, cleanup := setupBooksTestDB(t)
	defer cleanup()
	repo := booksrepo.NewRepository(db.DB)
	require.NoError(t, repo.CreateBook(&entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "1", CategoryID: 1, Quantity: 2}))
	router := booksTestRouter(db)

	body, _ := json.Marshal(map[string]any{
		"title":       "Dune",
		"author":      "Frank Herbert",
		"category_id": 1,
		"quantity":    5,
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/admin/books/1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var updated entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, 5, updated.AvailableQuantity)
}

func TestBooksController_Delete(t *testing.T) {
	db, cleanup := setupBooksTestDB(t)
	defer cleanup()
	repo := booksrepo.NewRepository(db.DB)
	require.NoError(t, repo.CreateBook(&entities.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "1", CategoryID: 1, Quantity: 2}))
	router := booksTestRouter(db)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/admin/books/1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Soft-deleted books disappear from the catalog
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/1", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
