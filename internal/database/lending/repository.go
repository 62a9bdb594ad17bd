// Package lending provides the database operations behind the borrowing
// workflow: requests, loans and the guarded availability updates.
//
// # Usage
//
//	repo := lending.NewRepository(db)
//	loan, err := repo.ApproveRequest(requestID, adminID, issueDate, dueDate)
package lending

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

var (
	// ErrNoCopies is returned when the conditional stock decrement matched
	// no rows, meaning every copy is already out.
	ErrNoCopies = errors.New("no available copies")

	// ErrNotPending is returned when a request is missing or already decided.
	ErrNotPending = errors.New("request is not pending")

	// ErrAlreadyClosed is returned when a loan has already been returned.
	ErrAlreadyClosed = errors.New("loan already closed")
)

// Repository handles all lending database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new lending repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// HasOpenLoan reports whether the user currently holds an issued copy of
// the book.
func (r *Repository) HasOpenLoan(userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Transaction{}).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, entities.TransactionStatusIssued).
		Count(&count).Error
	return count > 0, err
}

// HasPendingRequest reports whether the user already has an undecided
// request for the book.
func (r *Repository) HasPendingRequest(userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.BookRequest{}).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, entities.RequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

// CountOpenLoans returns how many books the user currently has issued.
func (r *Repository) CountOpenLoans(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Transaction{}).
		Where("user_id = ? AND status = ?", userID, entities.TransactionStatusIssued).
		Count(&count).Error
	return count, err
}

func (r *Repository) CreateRequest(request *entities.BookRequest) error {
	return r.db.Create(request).Error
}

func (r *Repository) GetRequestByID(id uint) (*entities.BookRequest, error) {
	var request entities.BookRequest
	err := r.db.Preload("User").Preload("Book").First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// ApproveRequest flips a pending request to approved, decrements the
// book's availability and opens the loan, all in one transaction. The
// decrement is conditional on available_quantity > 0 so two concurrent
// approvals of the last copy cannot both succeed: the loser sees zero
// rows affected and the whole transaction rolls back, leaving the request
// pending.
func (r *Repository) ApproveRequest(requestID, adminID uint, issueDate, dueDate time.Time) (*entities.Transaction, error) {
	var loan *entities.Transaction

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var request entities.BookRequest
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotPending
			}
			return err
		}
		if request.Status != entities.RequestStatusPending {
			return ErrNotPending
		}

		result := tx.Model(&entities.Book{}).
			Where("id = ? AND available_quantity > 0", request.BookID).
			UpdateColumn("available_quantity", gorm.Expr("available_quantity - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNoCopies
		}

		if err := tx.Model(&entities.BookRequest{}).
			Where("id = ?", request.ID).
			Update("status", entities.RequestStatusApproved).Error; err != nil {
			return err
		}

		loan = &entities.Transaction{
			UserID:    request.UserID,
			BookID:    request.BookID,
			IssueDate: issueDate,
			DueDate:   dueDate,
			Status:    entities.TransactionStatusIssued,
			IssuedBy:  adminID,
		}
		return tx.Create(loan).Error
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// RejectRequest flips a pending request to rejected with a reason. No
// inventory change.
func (r *Repository) RejectRequest(requestID uint, reason string) (*entities.BookRequest, error) {
	var request entities.BookRequest

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotPending
			}
			return err
		}
		if request.Status != entities.RequestStatusPending {
			return ErrNotPending
		}

		request.Status = entities.RequestStatusRejected
		request.RejectionReason = reason
		return tx.Model(&entities.BookRequest{}).
			Where("id = ?", request.ID).
			Updates(map[string]any{
				"status":           entities.RequestStatusRejected,
				"rejection_reason": reason,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// IssueLoan opens a loan directly, without a request, with the same
// guarded decrement as ApproveRequest.
func (r *Repository) IssueLoan(userID, bookID, adminID uint, issueDate, dueDate time.Time) (*entities.Transaction, error) {
	var loan *entities.Transaction

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Book{}).
			Where("id = ? AND available_quantity > 0", bookID).
			UpdateColumn("available_quantity", gorm.Expr("available_quantity - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNoCopies
		}

		loan = &entities.Transaction{
			UserID:    userID,
			BookID:    bookID,
			IssueDate: issueDate,
			DueDate:   dueDate,
			Status:    entities.TransactionStatusIssued,
			IssuedBy:  adminID,
		}
		return tx.Create(loan).Error
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (r *Repository) GetTransactionByID(id uint) (*entities.Transaction, error) {
	var loan entities.Transaction
	err := r.db.Preload("User").Preload("Book").First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// CloseLoan sets the return date and fine on an issued loan and gives the
// copy back to the shelf. The increment is conditional on
// available_quantity < quantity so the count can never exceed the owned
// quantity, and only an issued loan can be closed.
func (r *Repository) CloseLoan(loanID uint, returnDate time.Time, fine float64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var loan entities.Transaction
		if err := tx.First(&loan, loanID).Error; err != nil {
			return err
		}
		if loan.Status != entities.TransactionStatusIssued {
			return ErrAlreadyClosed
		}

		if err := tx.Model(&entities.Transaction{}).
			Where("id = ?", loan.ID).
			Updates(map[string]any{
				"status":      entities.TransactionStatusReturned,
				"return_date": returnDate,
				"fine_amount": fine,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&entities.Book{}).
			Where("id = ? AND available_quantity < quantity", loan.BookID).
			UpdateColumn("available_quantity", gorm.Expr("available_quantity + 1")).Error
	})
}

// MarkFinePaid flags the loan's fine as settled.
func (r *Repository) MarkFinePaid(loanID uint) error {
	result := r.db.Model(&entities.Transaction{}).
		Where("id = ?", loanID).
		Update("fine_paid", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPendingRequests returns undecided requests oldest first, with user
// and book context preloaded.
func (r *Repository) ListPendingRequests() ([]entities.BookRequest, error) {
	var requests []entities.BookRequest
	err := r.db.Preload("User").Preload("Book").
		Where("status = ?", entities.RequestStatusPending).
		Order("request_date ASC").
		Find(&requests).Error
	return requests, err
}

// ListOpenLoans returns all loans still out, oldest due first.
func (r *Repository) ListOpenLoans() ([]entities.Transaction, error) {
	var loans []entities.Transaction
	err := r.db.Preload("User").Preload("Book").
		Where("status = ?", entities.TransactionStatusIssued).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

// ListOverdueLoans returns open loans whose due date is before now.
func (r *Repository) ListOverdueLoans(now time.Time) ([]entities.Transaction, error) {
	var loans []entities.Transaction
	err := r.db.Preload("User").Preload("Book").
		Where("status = ? AND due_date < ?", entities.TransactionStatusIssued, now).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

// ListLoansForUser returns the user's loans, open first, newest first
// within each group.
func (r *Repository) ListLoansForUser(userID uint) ([]entities.Transaction, error) {
	var loans []entities.Transaction
	err := r.db.Preload("Book").Preload("Book.Category").
		Where("user_id = ?", userID).
		Order("status ASC, issue_date DESC").
		Find(&loans).Error
	return loans, err
}

// ListRequestsForUser returns the user's requests newest first.
func (r *Repository) ListRequestsForUser(userID uint) ([]entities.BookRequest, error) {
	var requests []entities.BookRequest
	err := r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("request_date DESC").
		Find(&requests).Error
	return requests, err
}
