package recommend

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	recommendrepo "github.com/digishelf/digishelf/internal/database/recommend"
	"github.com/digishelf/digishelf/internal/entities"
)

func setupTestService(t *testing.T) (*gorm.DB, *Service, func()) {
	dbPath := "./test_recommend_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Category{},
		&entities.Book{},
		&entities.Transaction{},
		&entities.Review{},
	)
	require.NoError(t, err)

	svc := NewService(recommendrepo.NewRepository(db))

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, svc, cleanup
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *entities.Category {
	category := &entities.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

func seedBook(t *testing.T, db *gorm.DB, title string, categoryID uint, available int) *entities.Book {
	book := &entities.Book{
		Title: title, Author: "A", CategoryID: categoryID,
		Quantity: available + 1, AvailableQuantity: available,
		Status: entities.BookStatusActive,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func seedReturnedLoan(t *testing.T, db *gorm.DB, userID, bookID uint) {
	returned := time.Now().AddDate(0, 0, -1)
	require.NoError(t, db.Create(&entities.Transaction{
		UserID: userID, BookID: bookID,
		IssueDate: time.Now().AddDate(0, 0, -15), DueDate: time.Now().AddDate(0, 0, -1),
		ReturnDate: &returned, Status: entities.TransactionStatusReturned,
	}).Error)
}

func TestService_ForUser_FromFavoriteGenres(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	scifi := seedCategory(t, db, "Science")
	arts := seedCategory(t, db, "Arts")

	read := seedBook(t, db, "Read Already", scifi.ID, 2)
	fresh := seedBook(t, db, "Fresh Science", scifi.ID, 2)
	seedBook(t, db, "Unrelated Arts", arts.ID, 2)

	seedReturnedLoan(t, db, 1, read.ID)

	recos, err := svc.ForUser(1, 2)
	require.NoError(t, err)

	require.NotEmpty(t, recos)
	// The already-read book never comes back
	for _, reco := range recos {
		assert.NotEqual(t, read.ID, reco.BookID)
	}
	assert.Equal(t, fresh.ID, recos[0].BookID)
	assert.Equal(t, "Science", recos[0].Category)
}

func TestService_ForUser_PaddingExcludesOwnLoans(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	scifi := seedCategory(t, db, "Science")
	fiction := seedCategory(t, db, "Fiction")

	// The member's favorite genre has nothing left to offer
	read := seedBook(t, db, "Read Already", scifi.ID, 2)
	seedReturnedLoan(t, db, 1, read.ID)

	// The most circulated book overall is one the member holds right now
	hot := seedBook(t, db, "Hot Title", fiction.ID, 2)
	mine := seedBook(t, db, "Borrowed By Me", fiction.ID, 2)
	require.NoError(t, db.Create(&entities.Transaction{
		UserID: 1, BookID: mine.ID,
		IssueDate: time.Now().AddDate(0, 0, -3), DueDate: time.Now().AddDate(0, 0, 11),
		Status: entities.TransactionStatusIssued,
	}).Error)
	seedReturnedLoan(t, db, 7, mine.ID)
	seedReturnedLoan(t, db, 8, mine.ID)
	seedReturnedLoan(t, db, 7, hot.ID)

	recos, err := svc.ForUser(1, 5)
	require.NoError(t, err)

	require.Len(t, recos, 1)
	assert.Equal(t, hot.ID, recos[0].BookID)
}

func TestService_ForUser_NoHistoryFallsBackToPopular(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	category := seedCategory(t, db, "Fiction")
	quiet := seedBook(t, db, "Quiet Book", category.ID, 1)
	popular := seedBook(t, db, "Popular Book", category.ID, 1)

	// Someone else borrowed the popular one twice
	seedReturnedLoan(t, db, 7, popular.ID)
	seedReturnedLoan(t, db, 8, popular.ID)

	recos, err := svc.ForUser(1, 5)
	require.NoError(t, err)

	require.Len(t, recos, 2)
	assert.Equal(t, popular.ID, recos[0].BookID)
	assert.Equal(t, quiet.ID, recos[1].BookID)
}

func TestService_ForUser_SkipsUnavailable(t *testing.T) {
	db, svc, cleanup := setupTestService(t)
	defer cleanup()

	category := seedCategory(t, db, "Fiction")
	seedBook(t, db, "Out Of Stock", category.ID, 0)

	recos, err := svc.ForUser(1, 5)
	require.NoError(t, err)

	assert.Empty(t, recos)
}
