package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.ActivityLog{})
	require.NoError(t, err)

	return db
}

func userRef(id uint) *uint {
	return &id
}

func TestRepository_LogEntry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	entry := &entities.ActivityLog{
		UserID:  userRef(1),
		Action:  entities.ActivityActionBookIssued,
		Details: "Issued \"The Go Programming Language\" (loan #1)",
	}

	err := repo.LogEntry(entry)
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestRepository_LogEntry_SystemEvent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	// System events carry no user
	entry := &entities.ActivityLog{
		Action:  "overdue_scan",
		Details: "Scanned 3 overdue loans",
	}

	err := repo.LogEntry(entry)
	require.NoError(t, err)
	assert.Nil(t, entry.UserID)
}

func TestRepository_GetEntries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	for i := 0; i < 15; i++ {
		entry := &entities.ActivityLog{
			UserID:    userRef(1),
			Action:    entities.ActivityActionBookRequested,
			Details:   "Test entry",
			CreatedAt: time.Now().Add(time.Duration(-i) * time.Hour),
		}
		require.NoError(t, repo.LogEntry(entry))
	}
	for i := 0; i < 5; i++ {
		entry := &entities.ActivityLog{
			UserID:  userRef(2),
			Action:  entities.ActivityActionBookReturned,
			Details: "Other user entry",
		}
		require.NoError(t, repo.LogEntry(entry))
	}

	t.Run("get all entries", func(t *testing.T) {
		entries, total, err := repo.GetEntries(0, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(20), total)
		assert.Len(t, entries, 20)
	})

	t.Run("get user entries", func(t *testing.T) {
		entries, total, err := repo.GetEntries(1, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
		assert.Len(t, entries, 15)
	})

	t.Run("pagination", func(t *testing.T) {
		entries, total, err := repo.GetEntries(1, 5, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
		assert.Len(t, entries, 5)

		entries2, _, err := repo.GetEntries(1, 5, 5)
		require.NoError(t, err)
		assert.Len(t, entries2, 5)
		assert.NotEqual(t, entries[0].ID, entries2[0].ID)
	})

	t.Run("order by created_at desc", func(t *testing.T) {
		entries, _, err := repo.GetEntries(1, 10, 0)
		require.NoError(t, err)
		for i := 1; i < len(entries); i++ {
			assert.True(t, entries[i-1].CreatedAt.After(entries[i].CreatedAt) || entries[i-1].CreatedAt.Equal(entries[i].CreatedAt))
		}
	})
}

func TestRepository_GetEntriesByAction(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.LogEntry(&entities.ActivityLog{
		UserID: userRef(1), Action: entities.ActivityActionBookIssued,
	}))
	require.NoError(t, repo.LogEntry(&entities.ActivityLog{
		UserID: userRef(1), Action: entities.ActivityActionBookReturned,
	}))
	require.NoError(t, repo.LogEntry(&entities.ActivityLog{
		UserID: userRef(2), Action: entities.ActivityActionBookIssued,
	}))

	entries, total, err := repo.GetEntriesByAction(entities.ActivityActionBookIssued, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, entry := range entries {
		assert.Equal(t, entities.ActivityActionBookIssued, entry.Action)
	}
}

func TestRepository_GetRecentEntries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	now := time.Now()

	require.NoError(t, repo.LogEntry(&entities.ActivityLog{
		UserID:    userRef(1),
		Action:    "old_action",
		CreatedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, repo.LogEntry(&entities.ActivityLog{
		UserID:    userRef(1),
		Action:    "recent_action",
		CreatedAt: now.Add(-1 * time.Hour),
	}))

	entries, err := repo.GetRecentEntries(1, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "recent_action", entries[0].Action)
}

func TestRepository_DeleteOldEntries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	now := time.Now()

	require.NoError(t, repo.LogEntry(&entities.ActivityLog{
		UserID:    userRef(1),
		Action:    "old_action",
		CreatedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, repo.LogEntry(&entities.ActivityLog{
		UserID:    userRef(1),
		Action:    "new_action",
		CreatedAt: now.Add(-1 * time.Hour),
	}))

	deleted, err := repo.DeleteOldEntries(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	entries, total, err := repo.GetEntries(0, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "new_action", entries[0].Action)
}
