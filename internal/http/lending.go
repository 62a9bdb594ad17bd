package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digishelf/digishelf/internal/entities"
	"github.com/digishelf/digishelf/internal/lending"
)

// LendingController exposes the member-facing borrowing endpoints.
type LendingController struct {
	service *lending.Service
}

func NewLendingController(service *lending.Service) *LendingController {
	return &LendingController{service: service}
}

type submitRequestBody struct {
	BookID   uint   `json:"book_id" binding:"required"`
	Priority string `json:"priority"`
}

// SubmitRequest queues a borrow request for approval.
// POST /api/requests
func (lc *LendingController) SubmitRequest(c *gin.Context) {
	var body submitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	priority := entities.RequestPriorityNormal
	if body.Priority == string(entities.RequestPriorityHigh) {
		priority = entities.RequestPriorityHigh
	}

	result, err := lc.service.SubmitRequest(GetUserID(c), body.BookID, priority)
	if err != nil {
		switch {
		case errors.Is(err, lending.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, lending.ErrDuplicateRequest):
			respondConflict(c, "you already have a pending request for this book")
		case errors.Is(err, lending.ErrAlreadyBorrowed):
			respondConflict(c, "you already have this book issued")
		case errors.Is(err, lending.ErrUserBlocked):
			respondError(c, http.StatusForbidden, "account is blocked")
		default:
			respondInternalError(c, err, "submit request")
		}
		return
	}

	respondCreated(c, result)
}

// ListMyRequests returns the caller's borrow requests, newest first.
// GET /api/requests
func (lc *LendingController) ListMyRequests(c *gin.Context) {
	requests, err := lc.service.ListRequestsForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListMyLoans returns the caller's loan history, newest first.
// GET /api/loans
func (lc *LendingController) ListMyLoans(c *gin.Context) {
	loans, err := lc.service.ListLoansForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans})
}

// PayFine settles the fine on one of the caller's closed loans.
// POST /api/loans/:id/pay-fine
func (lc *LendingController) PayFine(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Members can only settle their own fines
	loans, err := lc.service.ListLoansForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list loans")
		return
	}
	owned := false
	for _, loan := range loans {
		if loan.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		respondNotFound(c, "transaction")
		return
	}

	if err := lc.service.PayFine(id); err != nil {
		if errors.Is(err, lending.ErrTransactionNotFound) {
			respondNotFound(c, "transaction")
			return
		}
		respondInternalError(c, err, "pay fine")
		return
	}

	respondSuccess(c, "fine paid")
}
