package lending

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/digishelf/digishelf/internal/config"
	lendingrepo "github.com/digishelf/digishelf/internal/database/lending"
	"github.com/digishelf/digishelf/internal/entities"
)

func testPolicy() config.Lending {
	return config.Lending{
		LoanPeriodDays:  14,
		FinePerDay:      1.0,
		MaxBooksPerUser: 5,
		DueSoonDays:     3,
	}
}

func setupTestService(t *testing.T) (*gorm.DB, *Service, func()) {
	dbPath := "./test_lending_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Category{},
		&entities.Book{},
		&entities.BookRequest{},
		&entities.Transaction{},
	)
	require.NoError(t, err)

	svc := NewService(lendingrepo.NewRepository(db), nil, nil, testPolicy())

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, svc, cleanup
}

func createTestUser(t *testing.T, db *gorm.DB, studentID string) *entities.User {
	user := &entities.User{
		StudentID: studentID,
		Name:      "Test Member",
		Email:     studentID + "@example.com",
		Status:    entities.UserStatusActive,
		Role:      entities.UserRoleMember,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestBook(t *testing.T, db *gorm.DB, title string, quantity, available int) *entities.Book {
	book := &entities.Book{
		Title:             title,
		Author:            "Test Author",
		Quantity:          quantity,
		AvailableQuantity: available,
		Status:            entities.BookStatusActive,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func TestService_SubmitRequest(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	book := createTestBook(t, db, "The Go Programming Language", 3, 3)

	result, err := svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)

	require.NoError(t, err)
	assert.Equal(t, entities.RequestStatusPending, result.Request.Status)
	assert.Equal(t, 1, result.EstimatedWaitDays)
}

func TestService_SubmitRequest_OutOfStockWaitEstimate(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	book := createTestBook(t, db, "Unavailable Book", 2, 0)

	result, err := svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)

	// Requests queue even with no copies on the shelf
	require.NoError(t, err)
	assert.Equal(t, 7, result.EstimatedWaitDays)
}

func TestService_SubmitRequest_BookNotFound(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")

	_, err := svc.SubmitRequest(user.ID, 999, entities.RequestPriorityNormal)

	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestService_SubmitRequest_DuplicatePending(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	book := createTestBook(t, db, "Popular Book", 1, 1)

	_, err := svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)
	require.NoError(t, err)

	_, err = svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestService_SubmitRequest_AlreadyBorrowed(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Borrowed Book", 2, 2)

	_, err := svc.IssueBook(user.ID, book.ID, admin.ID)
	require.NoError(t, err)

	_, err = svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)
	assert.ErrorIs(t, err, ErrAlreadyBorrowed)
}

func TestService_SubmitRequest_BlockedUser(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	require.NoError(t, db.Model(user).Update("status", entities.UserStatusBlocked).Error)
	book := createTestBook(t, db, "Any Book", 1, 1)

	_, err := svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)

	assert.ErrorIs(t, err, ErrUserBlocked)
}

func TestService_ApproveRequest(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Approvable Book", 2, 2)

	result, err := svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)
	require.NoError(t, err)

	loan, err := svc.ApproveRequest(result.Request.ID, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, entities.TransactionStatusIssued, loan.Status)
	assert.Equal(t, user.ID, loan.UserID)
	assert.Equal(t, admin.ID, loan.IssuedBy)
	assert.Equal(t, loan.IssueDate.AddDate(0, 0, 14), loan.DueDate)

	// Availability dropped, request is terminal
	var updated entities.Book
	require.NoError(t, db.First(&updated, book.ID).Error)
	assert.Equal(t, 1, updated.AvailableQuantity)

	var request entities.BookRequest
	require.NoError(t, db.First(&request, result.Request.ID).Error)
	assert.Equal(t, entities.RequestStatusApproved, request.Status)
}

func TestService_ApproveRequest_OutOfStockLeavesPending(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Gone Book", 1, 0)

	result, err := svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)
	require.NoError(t, err)

	_, err = svc.ApproveRequest(result.Request.ID, admin.ID)
	assert.ErrorIs(t, err, ErrOutOfStock)

	// A failed approval must not consume the request
	var request entities.BookRequest
	require.NoError(t, db.First(&request, result.Request.ID).Error)
	assert.Equal(t, entities.RequestStatusPending, request.Status)
}

func TestService_ApproveRequest_Twice(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Once Book", 3, 3)

	result, err := svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)
	require.NoError(t, err)

	_, err = svc.ApproveRequest(result.Request.ID, admin.ID)
	require.NoError(t, err)

	_, err = svc.ApproveRequest(result.Request.ID, admin.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	// Only one copy left the shelf
	var updated entities.Book
	require.NoError(t, db.First(&updated, book.ID).Error)
	assert.Equal(t, 2, updated.AvailableQuantity)
}

func TestService_ApproveRequest_ConcurrentLastCopy(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	admin := createTestUser(t, db, "A001")
	userA := createTestUser(t, db, "S001")
	userB := createTestUser(t, db, "S002")
	book := createTestBook(t, db, "Last Copy", 1, 1)

	reqA, err := svc.SubmitRequest(userA.ID, book.ID, entities.RequestPriorityNormal)
	require.NoError(t, err)
	reqB, err := svc.SubmitRequest(userB.ID, book.ID, entities.RequestPriorityNormal)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uint{reqA.Request.ID, reqB.Request.ID} {
		wg.Add(1)
		go func(i int, requestID uint) {
			defer wg.Done()
			_, errs[i] = svc.ApproveRequest(requestID, admin.ID)
		}(i, id)
	}
	wg.Wait()

	// Exactly one approval wins the last copy
	var successes, outOfStock int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, ErrOutOfStock):
			outOfStock++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, outOfStock)

	var updated entities.Book
	require.NoError(t, db.First(&updated, book.ID).Error)
	assert.Equal(t, 0, updated.AvailableQuantity)

	var openLoans int64
	require.NoError(t, db.Model(&entities.Transaction{}).
		Where("book_id = ? AND status = ?", book.ID, entities.TransactionStatusIssued).
		Count(&openLoans).Error)
	assert.Equal(t, int64(1), openLoans)
}

func TestService_RejectRequest(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Denied Book", 1, 1)

	result, err := svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)
	require.NoError(t, err)

	rejected, err := svc.RejectRequest(result.Request.ID, "Reserved for coursework", admin.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RequestStatusRejected, rejected.Status)
	assert.Equal(t, "Reserved for coursework", rejected.RejectionReason)

	// No inventory change on rejection
	var updated entities.Book
	require.NoError(t, db.First(&updated, book.ID).Error)
	assert.Equal(t, 1, updated.AvailableQuantity)

	// Terminal: cannot be decided again
	_, err = svc.ApproveRequest(result.Request.ID, admin.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestService_IssueBook_OutOfStock(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Empty Shelf", 1, 0)

	_, err := svc.IssueBook(user.ID, book.ID, admin.ID)

	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestService_IssueBook_BorrowLimit(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")

	for i := 0; i < 5; i++ {
		book := createTestBook(t, db, "Limit Book", 1, 1)
		_, err := svc.IssueBook(user.ID, book.ID, admin.ID)
		require.NoError(t, err)
	}

	book := createTestBook(t, db, "One Too Many", 1, 1)
	_, err := svc.IssueBook(user.ID, book.ID, admin.ID)
	assert.ErrorIs(t, err, ErrBorrowLimitReached)
}

func TestService_ReturnBook_OnTime(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Punctual Book", 1, 1)

	loan, err := svc.IssueBook(user.ID, book.ID, admin.ID)
	require.NoError(t, err)

	result, err := svc.ReturnBook(loan.ID, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.FineAmount)
	assert.Equal(t, 0, result.DaysLate)

	var updated entities.Book
	require.NoError(t, db.First(&updated, book.ID).Error)
	assert.Equal(t, 1, updated.AvailableQuantity)
}

func TestService_ReturnBook_Late(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Late Book", 1, 1)

	loan, err := svc.IssueBook(user.ID, book.ID, admin.ID)
	require.NoError(t, err)

	// Pretend five days have passed since the due date
	svc.now = func() time.Time { return loan.DueDate.AddDate(0, 0, 5) }

	result, err := svc.ReturnBook(loan.ID, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, result.DaysLate)
	assert.Equal(t, 5.0, result.FineAmount)
}

func TestService_ReturnBook_Twice(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Once Returned", 1, 1)

	loan, err := svc.IssueBook(user.ID, book.ID, admin.ID)
	require.NoError(t, err)

	_, err = svc.ReturnBook(loan.ID, admin.ID)
	require.NoError(t, err)

	_, err = svc.ReturnBook(loan.ID, admin.ID)
	assert.ErrorIs(t, err, ErrNotIssued)

	// Availability never exceeds the owned quantity
	var updated entities.Book
	require.NoError(t, db.First(&updated, book.ID).Error)
	assert.Equal(t, 1, updated.AvailableQuantity)
}

func TestService_ReturnBook_NotFound(t *testing.T) {
	_, svc, cleanup := setupTestService(t)
	defer cleanup()

	_, err := svc.ReturnBook(999, 1)

	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestService_PayFine(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Fined Book", 1, 1)

	loan, err := svc.IssueBook(user.ID, book.ID, admin.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return loan.DueDate.AddDate(0, 0, 3) }
	_, err = svc.ReturnBook(loan.ID, admin.ID)
	require.NoError(t, err)

	require.NoError(t, svc.PayFine(loan.ID))

	var updated entities.Transaction
	require.NoError(t, db.First(&updated, loan.ID).Error)
	assert.True(t, updated.FinePaid)
}

func TestService_ListPendingRequests(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	userA := createTestUser(t, db, "S001")
	userB := createTestUser(t, db, "S002")
	book := createTestBook(t, db, "Queued Book", 1, 1)

	first, err := svc.SubmitRequest(userA.ID, book.ID, entities.RequestPriorityNormal)
	require.NoError(t, err)
	_, err = svc.SubmitRequest(userB.ID, book.ID, entities.RequestPriorityHigh)
	require.NoError(t, err)

	views, err := svc.ListPendingRequests()
	require.NoError(t, err)

	require.Len(t, views, 2)
	// Oldest first
	assert.Equal(t, first.Request.ID, views[0].ID)
	assert.Equal(t, "Queued Book", views[0].BookTitle)
	assert.Equal(t, "S001", views[0].StudentID)
}

func TestService_ListIssuedBooks_DerivedStatus(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Watched Book", 1, 1)

	loan, err := svc.IssueBook(user.ID, book.ID, admin.ID)
	require.NoError(t, err)

	views, err := svc.ListIssuedBooks()
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, LoanStatusNormal, views[0].Status)
	assert.Equal(t, 14, views[0].DaysRemaining)

	// Two days before due: due soon
	svc.now = func() time.Time { return loan.DueDate.AddDate(0, 0, -2) }
	views, err = svc.ListIssuedBooks()
	require.NoError(t, err)
	assert.Equal(t, LoanStatusDueSoon, views[0].Status)

	// Past due: overdue
	svc.now = func() time.Time { return loan.DueDate.AddDate(0, 0, 2) }
	views, err = svc.ListIssuedBooks()
	require.NoError(t, err)
	assert.Equal(t, LoanStatusOverdue, views[0].Status)
	assert.Equal(t, -2, views[0].DaysRemaining)
}

func TestService_ListOverdue(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	onTime := createTestBook(t, db, "On Time", 1, 1)
	late := createTestBook(t, db, "Late", 1, 1)

	_, err := svc.IssueBook(user.ID, onTime.ID, admin.ID)
	require.NoError(t, err)

	lateLoan, err := svc.IssueBook(user.ID, late.ID, admin.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&entities.Transaction{}).
		Where("id = ?", lateLoan.ID).
		Update("due_date", time.Now().AddDate(0, 0, -4)).Error)

	views, err := svc.ListOverdue()
	require.NoError(t, err)

	require.Len(t, views, 1)
	assert.Equal(t, lateLoan.ID, views[0].ID)
	assert.Equal(t, LoanStatusOverdue, views[0].Status)
}

func TestService_FullLifecycle(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	user := createTestUser(t, db, "S001")
	admin := createTestUser(t, db, "A001")
	book := createTestBook(t, db, "Round Trip", 2, 2)

	// request -> approve -> return, availability back where it started
	result, err := svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)
	require.NoError(t, err)

	loan, err := svc.ApproveRequest(result.Request.ID, admin.ID)
	require.NoError(t, err)

	var midway entities.Book
	require.NoError(t, db.First(&midway, book.ID).Error)
	assert.Equal(t, 1, midway.AvailableQuantity)

	returned, err := svc.ReturnBook(loan.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, returned.FineAmount)

	var final entities.Book
	require.NoError(t, db.First(&final, book.ID).Error)
	assert.Equal(t, 2, final.AvailableQuantity)

	// And the member can request the same book again
	_, err = svc.SubmitRequest(user.ID, book.ID, entities.RequestPriorityNormal)
	assert.NoError(t, err)
}
