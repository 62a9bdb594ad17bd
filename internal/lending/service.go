// Package lending implements the borrowing workflow: request, approve or
// reject, issue, return and fines. All state changes go through the
// injected store; notifications and activity records are best-effort side
// effects that never fail the operation.
package lending

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/config"
	lendingrepo "github.com/digishelf/digishelf/internal/database/lending"
	"github.com/digishelf/digishelf/internal/entities"
)

// Store is the persistence surface the workflow needs. Implemented by
// the lending repository.
type Store interface {
	GetBookByID(id uint) (*entities.Book, error)
	GetUserByID(id uint) (*entities.User, error)
	HasOpenLoan(userID, bookID uint) (bool, error)
	HasPendingRequest(userID, bookID uint) (bool, error)
	CountOpenLoans(userID uint) (int64, error)
	CreateRequest(request *entities.BookRequest) error
	GetRequestByID(id uint) (*entities.BookRequest, error)
	ApproveRequest(requestID, adminID uint, issueDate, dueDate time.Time) (*entities.Transaction, error)
	RejectRequest(requestID uint, reason string) (*entities.BookRequest, error)
	IssueLoan(userID, bookID, adminID uint, issueDate, dueDate time.Time) (*entities.Transaction, error)
	GetTransactionByID(id uint) (*entities.Transaction, error)
	CloseLoan(loanID uint, returnDate time.Time, fine float64) error
	MarkFinePaid(loanID uint) error
	ListPendingRequests() ([]entities.BookRequest, error)
	ListOpenLoans() ([]entities.Transaction, error)
	ListOverdueLoans(now time.Time) ([]entities.Transaction, error)
	ListLoansForUser(userID uint) ([]entities.Transaction, error)
	ListRequestsForUser(userID uint) ([]entities.BookRequest, error)
}

// Notifier delivers an in-app notification to a user.
type Notifier interface {
	Notify(userID uint, title, message string, notificationType entities.NotificationType, actionURL string) error
}

// ActivityRecorder appends an entry to the activity log.
type ActivityRecorder interface {
	Record(userID *uint, action, details, ipAddress string)
}

// Service drives the borrowing workflow.
type Service struct {
	store    Store
	notifier Notifier
	activity ActivityRecorder
	policy   config.Lending
	now      func() time.Time
}

func NewService(store Store, notifier Notifier, activity ActivityRecorder, policy config.Lending) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		activity: activity,
		policy:   policy,
		now:      time.Now,
	}
}

// RequestResult is what a member gets back after submitting a request.
type RequestResult struct {
	Request           *entities.BookRequest `json:"request"`
	EstimatedWaitDays int                   `json:"estimated_wait_days"`
}

// SubmitRequest records a member's ask to borrow a book. Availability is
// not checked here: members can queue for a title that is fully out.
func (s *Service) SubmitRequest(userID, bookID uint, priority entities.RequestPriority) (*RequestResult, error) {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.IsBlocked() {
		return nil, ErrUserBlocked
	}

	book, err := s.store.GetBookByID(bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	if book.Status != entities.BookStatusActive {
		return nil, ErrBookNotFound
	}

	borrowed, err := s.store.HasOpenLoan(userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open loans: %w", err)
	}
	if borrowed {
		return nil, ErrAlreadyBorrowed
	}

	pending, err := s.store.HasPendingRequest(userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if pending {
		return nil, ErrDuplicateRequest
	}

	if priority == "" {
		priority = entities.RequestPriorityNormal
	}
	request := &entities.BookRequest{
		UserID:      userID,
		BookID:      bookID,
		RequestDate: s.now(),
		Status:      entities.RequestStatusPending,
		Priority:    priority,
	}
	if err := s.store.CreateRequest(request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	waitDays := 7
	if book.AvailableQuantity > 0 {
		waitDays = 1
	}

	s.notify(userID, "Request submitted",
		fmt.Sprintf("Your request for %q has been submitted and is awaiting approval.", book.Title),
		entities.NotificationTypeInfo, "/my-requests")
	s.record(userID, entities.ActivityActionBookRequested,
		fmt.Sprintf("Requested %q (request #%d)", book.Title, request.ID))

	return &RequestResult{Request: request, EstimatedWaitDays: waitDays}, nil
}

// ApproveRequest turns a pending request into an open loan. The stock
// decrement is atomic in the store; when it loses the race for the last
// copy the request stays pending and ErrOutOfStock comes back.
func (s *Service) ApproveRequest(requestID, adminID uint) (*entities.Transaction, error) {
	request, err := s.store.GetRequestByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	if request.Status != entities.RequestStatusPending {
		return nil, ErrRequestNotFound
	}

	open, err := s.store.CountOpenLoans(request.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count open loans: %w", err)
	}
	if s.policy.MaxBooksPerUser > 0 && open >= int64(s.policy.MaxBooksPerUser) {
		return nil, ErrBorrowLimitReached
	}

	issueDate := s.now()
	dueDate := issueDate.AddDate(0, 0, s.policy.LoanPeriodDays)

	loan, err := s.store.ApproveRequest(requestID, adminID, issueDate, dueDate)
	if err != nil {
		switch {
		case errors.Is(err, lendingrepo.ErrNoCopies):
			return nil, ErrOutOfStock
		case errors.Is(err, lendingrepo.ErrNotPending):
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to approve request: %w", err)
	}

	s.notify(request.UserID, "Request approved",
		fmt.Sprintf("Your request for %q was approved. The book is due back on %s.",
			request.Book.Title, dueDate.Format("Jan 2, 2006")),
		entities.NotificationTypeSuccess, "/my-books")
	s.record(request.UserID, entities.ActivityActionBookIssued,
		fmt.Sprintf("Issued %q via request #%d (loan #%d)", request.Book.Title, requestID, loan.ID))

	return loan, nil
}

// RejectRequest declines a pending request with a reason. Inventory is
// untouched.
func (s *Service) RejectRequest(requestID uint, reason string, adminID uint) (*entities.BookRequest, error) {
	request, err := s.store.RejectRequest(requestID, reason)
	if err != nil {
		if errors.Is(err, lendingrepo.ErrNotPending) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to reject request: %w", err)
	}

	book, bookErr := s.store.GetBookByID(request.BookID)
	title := fmt.Sprintf("book #%d", request.BookID)
	if bookErr == nil {
		title = fmt.Sprintf("%q", book.Title)
	}

	message := fmt.Sprintf("Your request for %s was declined.", title)
	if reason != "" {
		message = fmt.Sprintf("Your request for %s was declined: %s", title, reason)
	}
	s.notify(request.UserID, "Request declined", message, entities.NotificationTypeWarning, "/my-requests")
	s.record(request.UserID, entities.ActivityActionRequestDenied,
		fmt.Sprintf("Rejected request #%d for %s", requestID, title))

	return request, nil
}

// IssueBook opens a loan directly at the desk, bypassing the request
// queue. Same stock guard and duplicate checks as an approval.
func (s *Service) IssueBook(userID, bookID, adminID uint) (*entities.Transaction, error) {
	book, err := s.store.GetBookByID(bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}

	borrowed, err := s.store.HasOpenLoan(userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open loans: %w", err)
	}
	if borrowed {
		return nil, ErrAlreadyBorrowed
	}

	open, err := s.store.CountOpenLoans(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count open loans: %w", err)
	}
	if s.policy.MaxBooksPerUser > 0 && open >= int64(s.policy.MaxBooksPerUser) {
		return nil, ErrBorrowLimitReached
	}

	issueDate := s.now()
	dueDate := issueDate.AddDate(0, 0, s.policy.LoanPeriodDays)

	loan, err := s.store.IssueLoan(userID, bookID, adminID, issueDate, dueDate)
	if err != nil {
		if errors.Is(err, lendingrepo.ErrNoCopies) {
			return nil, ErrOutOfStock
		}
		return nil, fmt.Errorf("failed to issue book: %w", err)
	}

	s.notify(userID, "Book issued",
		fmt.Sprintf("%q has been issued to you. It is due back on %s.",
			book.Title, dueDate.Format("Jan 2, 2006")),
		entities.NotificationTypeSuccess, "/my-books")
	s.record(userID, entities.ActivityActionBookIssued,
		fmt.Sprintf("Issued %q directly (loan #%d)", book.Title, loan.ID))

	return loan, nil
}

// ReturnResult reports the outcome of a return.
type ReturnResult struct {
	Transaction *entities.Transaction `json:"transaction"`
	FineAmount  float64               `json:"fine_amount"`
	DaysLate    int                   `json:"days_late"`
}

// ReturnBook closes an open loan, assesses any fine and puts the copy
// back on the shelf.
func (s *Service) ReturnBook(transactionID, adminID uint) (*ReturnResult, error) {
	loan, err := s.store.GetTransactionByID(transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if loan.Status != entities.TransactionStatusIssued {
		return nil, ErrNotIssued
	}

	returnedAt := s.now()
	daysLate := DaysLate(loan.DueDate, returnedAt)
	fine := FineFor(loan.DueDate, returnedAt, s.policy.FinePerDay)

	if err := s.store.CloseLoan(loan.ID, returnedAt, fine); err != nil {
		if errors.Is(err, lendingrepo.ErrAlreadyClosed) {
			return nil, ErrNotIssued
		}
		return nil, fmt.Errorf("failed to close loan: %w", err)
	}

	loan.Status = entities.TransactionStatusReturned
	loan.ReturnDate = &returnedAt
	loan.FineAmount = fine

	if fine > 0 {
		s.notify(loan.UserID, "Book returned with fine",
			fmt.Sprintf("%q was returned %d day(s) late. A fine of %.2f has been applied.",
				loan.Book.Title, daysLate, fine),
			entities.NotificationTypeWarning, "/my-fines")
	} else {
		s.notify(loan.UserID, "Book returned",
			fmt.Sprintf("Thanks for returning %q on time.", loan.Book.Title),
			entities.NotificationTypeSuccess, "")
	}
	s.record(loan.UserID, entities.ActivityActionBookReturned,
		fmt.Sprintf("Returned %q (loan #%d, fine %.2f)", loan.Book.Title, loan.ID, fine))

	return &ReturnResult{Transaction: loan, FineAmount: fine, DaysLate: daysLate}, nil
}

// PayFine settles the fine on a closed loan.
func (s *Service) PayFine(transactionID uint) error {
	loan, err := s.store.GetTransactionByID(transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("failed to load transaction: %w", err)
	}

	if err := s.store.MarkFinePaid(loan.ID); err != nil {
		return fmt.Errorf("failed to mark fine paid: %w", err)
	}

	s.record(loan.UserID, entities.ActivityActionFinePaid,
		fmt.Sprintf("Paid fine of %.2f on loan #%d", loan.FineAmount, loan.ID))
	return nil
}

// PendingRequestView is a pending request with enough context for the
// approval screen.
type PendingRequestView struct {
	ID                uint                     `json:"id"`
	UserID            uint                     `json:"user_id"`
	UserName          string                   `json:"user_name"`
	StudentID         string                   `json:"student_id"`
	BookID            uint                     `json:"book_id"`
	BookTitle         string                   `json:"book_title"`
	BookAuthor        string                   `json:"book_author"`
	AvailableQuantity int                      `json:"available_quantity"`
	Priority          entities.RequestPriority `json:"priority"`
	RequestDate       time.Time                `json:"request_date"`
}

// ListPendingRequests returns the approval queue, oldest first.
func (s *Service) ListPendingRequests() ([]PendingRequestView, error) {
	requests, err := s.store.ListPendingRequests()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	views := make([]PendingRequestView, 0, len(requests))
	for _, req := range requests {
		views = append(views, PendingRequestView{
			ID:                req.ID,
			UserID:            req.UserID,
			UserName:          req.User.Name,
			StudentID:         req.User.StudentID,
			BookID:            req.BookID,
			BookTitle:         req.Book.Title,
			BookAuthor:        req.Book.Author,
			AvailableQuantity: req.Book.AvailableQuantity,
			Priority:          req.Priority,
			RequestDate:       req.RequestDate,
		})
	}
	return views, nil
}

// LoanStatus classifies an open loan for display.
type LoanStatus string

const (
	LoanStatusNormal  LoanStatus = "normal"
	LoanStatusDueSoon LoanStatus = "due_soon"
	LoanStatusOverdue LoanStatus = "overdue"
)

// IssuedLoanView is an open loan with derived schedule state.
type IssuedLoanView struct {
	ID            uint       `json:"id"`
	UserID        uint       `json:"user_id"`
	UserName      string     `json:"user_name"`
	StudentID     string     `json:"student_id"`
	BookID        uint       `json:"book_id"`
	BookTitle     string     `json:"book_title"`
	IssueDate     time.Time  `json:"issue_date"`
	DueDate       time.Time  `json:"due_date"`
	DaysRemaining int        `json:"days_remaining"`
	Status        LoanStatus `json:"status"`
}

// ListIssuedBooks returns every open loan with days remaining and a
// derived normal / due_soon / overdue status.
func (s *Service) ListIssuedBooks() ([]IssuedLoanView, error) {
	loans, err := s.store.ListOpenLoans()
	if err != nil {
		return nil, fmt.Errorf("failed to list open loans: %w", err)
	}

	now := s.now()
	views := make([]IssuedLoanView, 0, len(loans))
	for i := range loans {
		views = append(views, s.loanView(&loans[i], now))
	}
	return views, nil
}

// ListOverdue returns open loans already past due. Read-side only; no
// state is mutated by the scan.
func (s *Service) ListOverdue() ([]IssuedLoanView, error) {
	now := s.now()
	loans, err := s.store.ListOverdueLoans(startOfDay(now))
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue loans: %w", err)
	}

	views := make([]IssuedLoanView, 0, len(loans))
	for i := range loans {
		views = append(views, s.loanView(&loans[i], now))
	}
	return views, nil
}

// ListLoansForUser returns the member's loan history, open loans first.
func (s *Service) ListLoansForUser(userID uint) ([]entities.Transaction, error) {
	return s.store.ListLoansForUser(userID)
}

// ListRequestsForUser returns the member's requests, newest first.
func (s *Service) ListRequestsForUser(userID uint) ([]entities.BookRequest, error) {
	return s.store.ListRequestsForUser(userID)
}

func (s *Service) loanView(loan *entities.Transaction, now time.Time) IssuedLoanView {
	daysRemaining := int(startOfDay(loan.DueDate).Sub(startOfDay(now)).Hours() / 24)

	status := LoanStatusNormal
	switch {
	case IsOverdue(loan, now):
		status = LoanStatusOverdue
	case daysRemaining <= s.policy.DueSoonDays:
		status = LoanStatusDueSoon
	}

	return IssuedLoanView{
		ID:            loan.ID,
		UserID:        loan.UserID,
		UserName:      loan.User.Name,
		StudentID:     loan.User.StudentID,
		BookID:        loan.BookID,
		BookTitle:     loan.Book.Title,
		IssueDate:     loan.IssueDate,
		DueDate:       loan.DueDate,
		DaysRemaining: daysRemaining,
		Status:        status,
	}
}

func (s *Service) notify(userID uint, title, message string, notificationType entities.NotificationType, actionURL string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(userID, title, message, notificationType, actionURL); err != nil {
		log.Printf("Failed to send notification to user %d: %v", userID, err)
	}
}

func (s *Service) record(userID uint, action, details string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(&userID, action, details, "")
}
