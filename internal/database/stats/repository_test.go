package stats

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digishelf/digishelf/internal/database"
	"github.com/digishelf/digishelf/internal/entities"
)

func setupTestRepository(t *testing.T) (*Repository, *database.Database, func()) {
	t.Helper()

	dbPath := fmt.Sprintf("./test_stats_%s.db", t.Name())
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return NewRepository(db.DB), db, cleanup
}

func seedMember(t *testing.T, db *database.Database, studentID string) *entities.User {
	t.Helper()
	user := &entities.User{
		StudentID: studentID,
		Name:      "Member " + studentID,
		Email:     studentID + "@campus.edu",
		Role:      entities.UserRoleMember,
		Status:    entities.UserStatusActive,
	}
	require.NoError(t, db.DB.Create(user).Error)
	return user
}

func seedBook(t *testing.T, db *database.Database, title string, categoryID uint) *entities.Book {
	t.Helper()
	book := &entities.Book{
		Title:             title,
		Author:            "Author",
		ISBN:              "isbn-" + title,
		CategoryID:        categoryID,
		Quantity:          3,
		AvailableQuantity: 3,
		Status:            entities.BookStatusActive,
	}
	require.NoError(t, db.DB.Create(book).Error)
	return book
}

func TestGetUserStats(t *testing.T) {
	repo, db, cleanup := setupTestRepository(t)
	defer cleanup()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	user := seedMember(t, db, "STU-1")
	other := seedMember(t, db, "STU-2")
	book := seedBook(t, db, "Dune", 1)

	// One open loan, overdue, with an unpaid fine on a closed loan.
	require.NoError(t, db.DB.Create(&entities.Transaction{
		UserID:    user.ID,
		BookID:    book.ID,
		IssueDate: now.AddDate(0, 0, -20),
		DueDate:   now.AddDate(0, 0, -6),
		Status:    entities.TransactionStatusIssued,
	}).Error)
	returned := now.AddDate(0, 0, -1)
	require.NoError(t, db.DB.Create(&entities.Transaction{
		UserID:     user.ID,
		BookID:     book.ID,
		IssueDate:  now.AddDate(0, 0, -30),
		DueDate:    now.AddDate(0, 0, -16),
		ReturnDate: &returned,
		Status:     entities.TransactionStatusReturned,
		FineAmount: 4.0,
	}).Error)
	require.NoError(t, db.DB.Create(&entities.BookRequest{
		UserID:      user.ID,
		BookID:      book.ID,
		RequestDate: now,
		Status:      entities.RequestStatusPending,
	}).Error)
	require.NoError(t, db.DB.Create(&entities.Review{UserID: user.ID, BookID: book.ID, Rating: 4, Status: entities.ReviewStatusActive}).Error)
	require.NoError(t, db.DB.Create(&entities.WishlistItem{UserID: user.ID, BookID: book.ID}).Error)

	// Noise from another member must not leak in.
	require.NoError(t, db.DB.Create(&entities.Transaction{
		UserID:    other.ID,
		BookID:    book.ID,
		IssueDate: now,
		DueDate:   now.AddDate(0, 0, 14),
		Status:    entities.TransactionStatusIssued,
	}).Error)

	stats, err := repo.GetUserStats(user.ID, now)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.BorrowedNow)
	assert.Equal(t, int64(2), stats.TotalBorrowed)
	assert.Equal(t, int64(1), stats.OverdueNow)
	assert.Equal(t, 4.0, stats.UnpaidFines)
	assert.Equal(t, int64(1), stats.PendingRequests)
	assert.Equal(t, int64(1), stats.ReviewsWritten)
	assert.Equal(t, int64(1), stats.WishlistSize)
}

func TestGetLibraryStats(t *testing.T) {
	repo, db, cleanup := setupTestRepository(t)
	defer cleanup()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	user := seedMember(t, db, "STU-1")
	blocked := seedMember(t, db, "STU-2")
	require.NoError(t, db.DB.Model(blocked).Update("status", entities.UserStatusBlocked).Error)
	book := seedBook(t, db, "Dune", 1)

	require.NoError(t, db.DB.Create(&entities.Transaction{
		UserID:    user.ID,
		BookID:    book.ID,
		IssueDate: now.AddDate(0, 0, -20),
		DueDate:   now.AddDate(0, 0, -6),
		Status:    entities.TransactionStatusIssued,
	}).Error)
	require.NoError(t, db.DB.Create(&entities.BookRequest{
		UserID:      user.ID,
		BookID:      book.ID,
		RequestDate: now,
		Status:      entities.RequestStatusPending,
	}).Error)

	stats, err := repo.GetLibraryStats(now)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalBooks)
	assert.Equal(t, int64(2), stats.TotalMembers)
	assert.Equal(t, int64(1), stats.ActiveMembers)
	assert.Equal(t, int64(1), stats.BooksIssued)
	assert.Equal(t, int64(1), stats.BooksOverdue)
	assert.Equal(t, int64(1), stats.PendingRequests)
}

func TestCirculationByMonth(t *testing.T) {
	repo, db, cleanup := setupTestRepository(t)
	defer cleanup()

	user := seedMember(t, db, "STU-1")
	book := seedBook(t, db, "Dune", 1)

	for _, issue := range []time.Time{
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, db.DB.Create(&entities.Transaction{
			UserID:    user.ID,
			BookID:    book.ID,
			IssueDate: issue,
			DueDate:   issue.AddDate(0, 0, 14),
			Status:    entities.TransactionStatusIssued,
		}).Error)
	}

	series, err := repo.CirculationByMonth(12)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "2026-01", series[0].Month)
	assert.Equal(t, int64(2), series[0].Count)
	assert.Equal(t, "2026-02", series[1].Month)
	assert.Equal(t, int64(1), series[1].Count)
}

func TestCategoryDistribution(t *testing.T) {
	repo, db, cleanup := setupTestRepository(t)
	defer cleanup()

	user := seedMember(t, db, "STU-1")
	fiction, err := db.GetCategoryByName("Fiction")
	require.NoError(t, err)
	science, err := db.GetCategoryByName("Science")
	require.NoError(t, err)

	dune := seedBook(t, db, "Dune", fiction.ID)
	seedBook(t, db, "Cosmos", science.ID)

	require.NoError(t, db.DB.Create(&entities.Transaction{
		UserID:    user.ID,
		BookID:    dune.ID,
		IssueDate: time.Now(),
		DueDate:   time.Now().AddDate(0, 0, 14),
		Status:    entities.TransactionStatusIssued,
	}).Error)

	shares, err := repo.CategoryDistribution()
	require.NoError(t, err)

	byName := make(map[string]CategoryShare)
	for _, share := range shares {
		byName[share.Category] = share
	}
	assert.Equal(t, int64(1), byName["Fiction"].Books)
	assert.Equal(t, int64(1), byName["Fiction"].Loans)
	assert.Equal(t, int64(1), byName["Science"].Books)
	assert.Equal(t, int64(0), byName["Science"].Loans)
}

func TestGetPerformanceMetrics(t *testing.T) {
	repo, db, cleanup := setupTestRepository(t)
	defer cleanup()

	user := seedMember(t, db, "STU-1")
	book := seedBook(t, db, "Dune", 1)

	issue := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	onTime := issue.AddDate(0, 0, 10)
	late := issue.AddDate(0, 0, 18)
	require.NoError(t, db.DB.Create(&entities.Transaction{
		UserID:     user.ID,
		BookID:     book.ID,
		IssueDate:  issue,
		DueDate:    issue.AddDate(0, 0, 14),
		ReturnDate: &onTime,
		Status:     entities.TransactionStatusReturned,
	}).Error)
	require.NoError(t, db.DB.Create(&entities.Transaction{
		UserID:     user.ID,
		BookID:     book.ID,
		IssueDate:  issue,
		DueDate:    issue.AddDate(0, 0, 14),
		ReturnDate: &late,
		Status:     entities.TransactionStatusReturned,
		FineAmount: 4.0,
		FinePaid:   true,
	}).Error)

	metrics, err := repo.GetPerformanceMetrics()
	require.NoError(t, err)

	assert.InDelta(t, 14.0, metrics.AvgLoanDays, 0.01)
	assert.InDelta(t, 0.5, metrics.OnTimeRate, 0.01)
	assert.Equal(t, 4.0, metrics.FinesCollected)
	assert.Equal(t, 0.0, metrics.FinesOutstanding)
}
