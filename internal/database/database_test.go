package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestNewDatabase(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NotNil(t, db)
	require.NotNil(t, db.DB)

	// Schema applied: the core tables answer queries
	for _, table := range []string{"users", "books", "categories", "transactions", "book_requests"} {
		assert.True(t, db.DB.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestSeedCategories(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	categories, err := db.GetAllCategories()
	require.NoError(t, err)
	assert.Len(t, categories, len(defaultCategories))

	// Seeding is idempotent
	require.NoError(t, db.seedCategories())
	categories, err = db.GetAllCategories()
	require.NoError(t, err)
	assert.Len(t, categories, len(defaultCategories))
}

func TestGetCategoryByName(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	category, err := db.GetCategoryByName("Fiction")
	require.NoError(t, err)
	assert.Equal(t, "Fiction", category.Name)

	_, err = db.GetCategoryByName("Alchemy")
	assert.Error(t, err)
}
