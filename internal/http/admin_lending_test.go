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

	"github.com/digishelf/digishelf/internal/auth"
	"github.com/digishelf/digishelf/internal/config"
	"github.com/digishelf/digishelf/internal/database"
	lendingrepo "github.com/digishelf/digishelf/internal/database/lending"
	"github.com/digishelf/digishelf/internal/entities"
	"github.com/digishelf/digishelf/internal/lending"
)

type lendingTestEnv struct {
	db     *database.Database
	router *gin.Engine
	member *entities.User
	book   *entities.Book
}

func setupLendingTest(t *testing.T) (*lendingTestEnv, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_lendinghttp_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	member := &entities.User{
		StudentID: "STU-1",
		Name:      "Asha Rao",
		Email:     "asha@campus.edu",
		Role:      entities.UserRoleMember,
		Status:    entities.UserStatusActive,
	}
	require.NoError(t, db.DB.Create(member).Error)

	book := &entities.Book{
		Title:             "Dune",
		Author:            "Frank Herbert",
		ISBN:              "9780441013593",
		CategoryID:        1,
		Quantity:          1,
		AvailableQuantity: 1,
		Status:            entities.BookStatusActive,
	}
	require.NoError(t, db.DB.Create(book).Error)

	service := lending.NewService(lendingrepo.NewRepository(db.DB), nil, nil, config.Lending{
		LoanPeriodDays:  14,
		FinePerDay:      1.0,
		MaxBooksPerUser: 5,
		DueSoonDays:     3,
	})

	memberController := NewLendingController(service)
	adminController := NewAdminLendingController(service)

	router := gin.New()
	// Requests carry the member identity; admin routes act as user 99
	router.POST("/api/requests", asUser(member.ID), memberController.SubmitRequest)
	router.GET("/api/requests", asUser(member.ID), memberController.ListMyRequests)
	router.GET("/api/loans", asUser(member.ID), memberController.ListMyLoans)
	admin := router.Group("/api/admin", asUser(99))
	admin.GET("/requests", adminController.ListPendingRequests)
	admin.POST("/requests/:id/approve", adminController.ApproveRequest)
	admin.POST("/requests/:id/reject", adminController.RejectRequest)
	admin.POST("/issue", adminController.IssueBook)
	admin.GET("/loans", adminController.ListIssuedBooks)
	admin.POST("/loans/:id/return", adminController.ReturnBook)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return &lendingTestEnv{db: db, router: router, member: member, book: book}, cleanup
}

func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, userID)
		c.Next()
	}
}

func (env *lendingTestEnv) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)
	return w
}

func TestLendingFlow_RequestApproveReturn(t *testing.T) {
	env, cleanup := setupLendingTest(t)
	defer cleanup()

	// Member requests the book
	w := env.do(t, "POST", "/api/requests", map[string]any{"book_id": env.book.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	var submitted struct {
		Request           entities.BookRequest `json:"request"`
		EstimatedWaitDays int                  `json:"estimated_wait_days"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))
	assert.Equal(t, 1, submitted.EstimatedWaitDays)

	// Admin sees it in the queue
	w = env.do(t, "GET", "/api/admin/requests", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	// Approve issues the single copy
	w = env.do(t, "POST", "/api/admin/requests/1/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var book entities.Book
	require.NoError(t, env.db.DB.First(&book, env.book.ID).Error)
	assert.Equal(t, 0, book.AvailableQuantity)

	// Member sees the loan
	w = env.do(t, "GET", "/api/loans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"issued"`)

	// Return puts the copy back
	w = env.do(t, "POST", "/api/admin/loans/1/return", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, env.db.DB.First(&book, env.book.ID).Error)
	assert.Equal(t, 1, book.AvailableQuantity)
}

func TestLendingFlow_DuplicateRequestRejected(t *testing.T) {
	env, cleanup := setupLendingTest(t)
	defer cleanup()

	w := env.do(t, "POST", "/api/requests", map[string]any{"book_id": env.book.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "POST", "/api/requests", map[string]any{"book_id": env.book.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLendingFlow_RejectNeedsReason(t *testing.T) {
	env, cleanup := setupLendingTest(t)
	defer cleanup()

	w := env.do(t, "POST", "/api/requests", map[string]any{"book_id": env.book.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "POST", "/api/admin/requests/1/reject", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/api/admin/requests/1/reject", map[string]any{"reason": "damaged copy"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "damaged copy")
}

func TestLendingFlow_ApproveOutOfStockConflict(t *testing.T) {
	env, cleanup := setupLendingTest(t)
	defer cleanup()

	// Second member takes the only copy at the desk
	other := &entities.User{
		StudentID: "STU-2",
		Name:      "Ben Cole",
		Email:     "ben@campus.edu",
		Role:      entities.UserRoleMember,
		Status:    entities.UserStatusActive,
	}
	require.NoError(t, env.db.DB.Create(other).Error)

	w := env.do(t, "POST", "/api/requests", map[string]any{"book_id": env.book.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "POST", "/api/admin/issue", map[string]any{"user_id": other.ID, "book_id": env.book.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	// The pending request can no longer be approved
	w = env.do(t, "POST", "/api/admin/requests/1/approve", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// It is still pending for the member
	var request entities.BookRequest
	require.NoError(t, env.db.DB.First(&request, 1).Error)
	assert.Equal(t, entities.RequestStatusPending, request.Status)
}

func TestLendingFlow_UnknownRequest(t *testing.T) {
	env, cleanup := setupLendingTest(t)
	defer cleanup()

	w := env.do(t, "POST", "/api/admin/requests/42/approve", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
