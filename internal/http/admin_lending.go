package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digishelf/digishelf/internal/lending"
)

// AdminLendingController exposes the librarian's circulation desk:
// approval queue, issue, return and fines.
type AdminLendingController struct {
	service *lending.Service
}

func NewAdminLendingController(service *lending.Service) *AdminLendingController {
	return &AdminLendingController{service: service}
}

// ListPendingRequests returns the approval queue, oldest first.
// GET /api/admin/requests
func (alc *AdminLendingController) ListPendingRequests(c *gin.Context) {
	requests, err := alc.service.ListPendingRequests()
	if err != nil {
		respondInternalError(c, err, "list pending requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

// ApproveRequest approves a pending request and issues the book.
// POST /api/admin/requests/:id/approve
func (alc *AdminLendingController) ApproveRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	transaction, err := alc.service.ApproveRequest(id, GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, lending.ErrRequestNotFound):
			respondNotFound(c, "pending request")
		case errors.Is(err, lending.ErrOutOfStock):
			respondConflict(c, "no copies available, request stays pending")
		case errors.Is(err, lending.ErrBorrowLimitReached):
			respondConflict(c, "member has reached the borrow limit")
		default:
			respondInternalError(c, err, "approve request")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

type rejectBody struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectRequest rejects a pending request with a reason.
// POST /api/admin/requests/:id/reject
func (alc *AdminLendingController) RejectRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body rejectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "reason is required")
		return
	}

	request, err := alc.service.RejectRequest(id, body.Reason, GetUserID(c))
	if err != nil {
		if errors.Is(err, lending.ErrRequestNotFound) {
			respondNotFound(c, "pending request")
			return
		}
		respondInternalError(c, err, "reject request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

type issueBody struct {
	UserID uint `json:"user_id" binding:"required"`
	BookID uint `json:"book_id" binding:"required"`
}

// IssueBook hands a copy directly to a member at the desk, skipping the
// request queue.
// POST /api/admin/issue
func (alc *AdminLendingController) IssueBook(c *gin.Context) {
	var body issueBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "user_id and book_id are required")
		return
	}

	transaction, err := alc.service.IssueBook(body.UserID, body.BookID, GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, lending.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, lending.ErrOutOfStock):
			respondConflict(c, "no copies available")
		case errors.Is(err, lending.ErrAlreadyBorrowed):
			respondConflict(c, "member already has this book issued")
		case errors.Is(err, lending.ErrBorrowLimitReached):
			respondConflict(c, "member has reached the borrow limit")
		case errors.Is(err, lending.ErrUserBlocked):
			respondError(c, http.StatusForbidden, "member account is blocked")
		default:
			respondInternalError(c, err, "issue book")
		}
		return
	}

	respondCreated(c, gin.H{"transaction": transaction})
}

// ReturnBook closes a loan, assessing any late fine.
// POST /api/admin/loans/:id/return
func (alc *AdminLendingController) ReturnBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := alc.service.ReturnBook(id, GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, lending.ErrTransactionNotFound):
			respondNotFound(c, "transaction")
		case errors.Is(err, lending.ErrNotIssued):
			respondConflict(c, "book is not currently issued")
		default:
			respondInternalError(c, err, "return book")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// PayFine settles the fine on a closed loan.
// POST /api/admin/loans/:id/pay-fine
func (alc *AdminLendingController) PayFine(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := alc.service.PayFine(id); err != nil {
		if errors.Is(err, lending.ErrTransactionNotFound) {
			respondNotFound(c, "transaction")
			return
		}
		respondInternalError(c, err, "pay fine")
		return
	}

	respondSuccess(c, "fine paid")
}

// ListIssuedBooks returns every open loan with derived schedule state.
// GET /api/admin/loans
func (alc *AdminLendingController) ListIssuedBooks(c *gin.Context) {
	loans, err := alc.service.ListIssuedBooks()
	if err != nil {
		respondInternalError(c, err, "list issued books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "count": len(loans)})
}

// ListOverdueBooks returns only the loans past their due date.
// GET /api/admin/loans/overdue
func (alc *AdminLendingController) ListOverdueBooks(c *gin.Context) {
	loans, err := alc.service.ListOverdue()
	if err != nil {
		respondInternalError(c, err, "list overdue books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "count": len(loans)})
}
