package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digishelf/digishelf/internal/entities"
	"github.com/digishelf/digishelf/internal/reading"
)

type ReadingController struct {
	service *reading.Service
}

func NewReadingController(service *reading.Service) *ReadingController {
	return &ReadingController{service: service}
}

type startSessionBody struct {
	BookID     uint   `json:"book_id" binding:"required"`
	StartPage  int    `json:"start_page"`
	DeviceType string `json:"device_type"`
}

// StartSession opens a reading session. Any dangling open session for
// the same user is closed first.
// POST /api/reading/sessions
func (rc *ReadingController) StartSession(c *gin.Context) {
	var body startSessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	device := entities.DeviceTypeWeb
	switch entities.DeviceType(body.DeviceType) {
	case entities.DeviceTypeMobile:
		device = entities.DeviceTypeMobile
	case entities.DeviceTypeTablet:
		device = entities.DeviceTypeTablet
	}

	session, err := rc.service.StartSession(GetUserID(c), body.BookID, body.StartPage, device)
	if err != nil {
		respondInternalError(c, err, "start reading session")
		return
	}

	respondCreated(c, session)
}

type progressBody struct {
	CurrentPage int `json:"current_page" binding:"required"`
}

// UpdateProgress advances the page within an open session.
// PATCH /api/reading/sessions/:id
func (rc *ReadingController) UpdateProgress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body progressBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "current_page is required")
		return
	}

	session, err := rc.service.UpdateProgress(id, GetUserID(c), body.CurrentPage)
	if err != nil {
		rc.respondSessionError(c, err, "update reading progress")
		return
	}

	c.JSON(http.StatusOK, session)
}

type endSessionBody struct {
	FinalPage int `json:"final_page"`
}

// EndSession closes a session and records pages read.
// POST /api/reading/sessions/:id/end
func (rc *ReadingController) EndSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body endSessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	session, err := rc.service.EndSession(id, GetUserID(c), body.FinalPage)
	if err != nil {
		rc.respondSessionError(c, err, "end reading session")
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetStats returns the caller's reading statistics and streak.
// GET /api/reading/stats
func (rc *ReadingController) GetStats(c *gin.Context) {
	stats, err := rc.service.GetStats(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "reading stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListRecentSessions returns the caller's latest sessions.
// GET /api/reading/sessions
func (rc *ReadingController) ListRecentSessions(c *gin.Context) {
	limit, _ := parsePagination(c, 20)
	sessions, err := rc.service.ListRecent(GetUserID(c), limit)
	if err != nil {
		respondInternalError(c, err, "list reading sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (rc *ReadingController) respondSessionError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, reading.ErrSessionNotFound):
		respondNotFound(c, "reading session")
	case errors.Is(err, reading.ErrNotOwner):
		respondError(c, http.StatusForbidden, "session belongs to another user")
	case errors.Is(err, reading.ErrSessionClosed):
		respondConflict(c, "reading session already ended")
	default:
		respondInternalError(c, err, context)
	}
}
