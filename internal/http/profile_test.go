package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usersrepo "github.com/digishelf/digishelf/internal/database/users"
	"github.com/digishelf/digishelf/internal/entities"
)

func TestProfileController_GetAndUpdate(t *testing.T) {
	db, cleanup := setupBooksTestDB(t)
	defer cleanup()

	member := &entities.User{
		StudentID: "STU-9",
		Name:      "Asha Rao",
		Email:     "asha@campus.edu",
		Course:    "Physics",
		Year:      2,
		Role:      entities.UserRoleMember,
		Status:    entities.UserStatusActive,
	}
	require.NoError(t, db.DB.Create(member).Error)

	controller := NewProfileController(usersrepo.NewRepository(db.DB), nil, nil)
	router := gin.New()
	router.Use(asUser(member.ID))
	router.GET("/api/profile", controller.GetProfile)
	router.PUT("/api/profile", controller.UpdateProfile)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/profile", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Asha Rao")
	assert.NotContains(t, w.Body.String(), "password")

	body, _ := json.Marshal(map[string]any{
		"name":   "Asha R. Rao",
		"phone":  "555-0101",
		"course": "Astrophysics",
		"year":   3,
	})
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPut, "/api/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var updated entities.User
	require.NoError(t, db.DB.First(&updated, member.ID).Error)
	assert.Equal(t, "Asha R. Rao", updated.Name)
	assert.Equal(t, "Astrophysics", updated.Course)
	assert.Equal(t, 3, updated.Year)
	// Identity fields never change through the profile
	assert.Equal(t, "STU-9", updated.StudentID)
	assert.Equal(t, "asha@campus.edu", updated.Email)
}

func TestProfileController_UpdateRequiresName(t *testing.T) {
	db, cleanup := setupBooksTestDB(t)
	defer cleanup()

	member := &entities.User{
		StudentID: "STU-9", Name: "Asha Rao", Email: "asha@campus.edu",
		Role: entities.UserRoleMember, Status: entities.UserStatusActive,
	}
	require.NoError(t, db.DB.Create(member).Error)

	controller := NewProfileController(usersrepo.NewRepository(db.DB), nil, nil)
	router := gin.New()
	router.Use(asUser(member.ID))
	router.PUT("/api/profile", controller.UpdateProfile)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/api/profile", bytes.NewReader([]byte(`{"phone":"555-0101"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
