package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digishelf/digishelf/internal/activity"
	"github.com/digishelf/digishelf/internal/config"
	activityrepo "github.com/digishelf/digishelf/internal/database/activity"
	lendingrepo "github.com/digishelf/digishelf/internal/database/lending"
	notificationsrepo "github.com/digishelf/digishelf/internal/database/notifications"
	readingrepo "github.com/digishelf/digishelf/internal/database/reading"
	recommendrepo "github.com/digishelf/digishelf/internal/database/recommend"
	statsrepo "github.com/digishelf/digishelf/internal/database/stats"
	"github.com/digishelf/digishelf/internal/entities"
	"github.com/digishelf/digishelf/internal/lending"
	"github.com/digishelf/digishelf/internal/notify"
	"github.com/digishelf/digishelf/internal/reading"
	"github.com/digishelf/digishelf/internal/recommend"
)

func TestDashboardController_GetDashboard(t *testing.T) {
	db, cleanup := setupBooksTestDB(t)
	defer cleanup()

	member := &entities.User{
		StudentID: "STU-5", Name: "Ben Ito", Email: "ben@campus.edu",
		Role: entities.UserRoleMember, Status: entities.UserStatusActive,
	}
	other := &entities.User{
		StudentID: "STU-6", Name: "Asha Rao", Email: "asha@campus.edu",
		Role: entities.UserRoleMember, Status: entities.UserStatusActive,
	}
	require.NoError(t, db.DB.Create(member).Error)
	require.NoError(t, db.DB.Create(other).Error)

	// A circulated book gives the recommender something to suggest
	book := &entities.Book{
		Title: "Dune", Author: "Frank Herbert", CategoryID: 1,
		Quantity: 2, AvailableQuantity: 2, Status: entities.BookStatusActive,
	}
	require.NoError(t, db.DB.Create(book).Error)
	returned := time.Now().AddDate(0, 0, -2)
	require.NoError(t, db.DB.Create(&entities.Transaction{
		UserID: other.ID, BookID: book.ID,
		IssueDate: time.Now().AddDate(0, 0, -16), DueDate: time.Now().AddDate(0, 0, -2),
		ReturnDate: &returned, Status: entities.TransactionStatusReturned,
	}).Error)

	controller := NewDashboardController(
		statsrepo.NewRepository(db.DB),
		lending.NewService(lendingrepo.NewRepository(db.DB), nil, nil, config.Lending{
			LoanPeriodDays: 14, FinePerDay: 1.0, MaxBooksPerUser: 5, DueSoonDays: 3,
		}),
		reading.NewService(readingrepo.NewRepository(db.DB)),
		notify.NewService(notificationsrepo.NewRepository(db.DB)),
		recommend.NewService(recommendrepo.NewRepository(db.DB)),
		activity.NewService(activityrepo.NewRepository(db.DB)),
	)

	router := gin.New()
	router.Use(asUser(member.ID))
	router.GET("/api/dashboard", controller.GetDashboard)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/dashboard", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Contains(t, payload, "stats")
	assert.Contains(t, payload, "borrowed_books")
	assert.Contains(t, payload, "reading_streak")
	assert.Contains(t, payload, "unread_count")
	assert.Contains(t, payload, "recommendations")
	assert.Contains(t, payload, "favorite_genres")

	var recos []recommendrepo.Candidate
	require.NoError(t, json.Unmarshal(payload["recommendations"], &recos))
	require.NotEmpty(t, recos)
	assert.Equal(t, "Dune", recos[0].Title)
}
