package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/digishelf/digishelf/internal/entities"
)

var defaultCategories = []entities.Category{
	{Name: "Fiction", Description: "Novels, short stories and literary fiction"},
	{Name: "Non-Fiction", Description: "Biography, history and general non-fiction"},
	{Name: "Science", Description: "Natural sciences and mathematics"},
	{Name: "Technology", Description: "Computing, engineering and applied sciences"},
	{Name: "Business", Description: "Management, economics and finance"},
	{Name: "Arts", Description: "Art, music, design and photography"},
	{Name: "Reference", Description: "Dictionaries, encyclopedias and manuals"},
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// The busy timeout lets concurrent writers (approvals racing for the
	// last copy) queue on the sqlite lock instead of failing immediately.
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.User{},
		&entities.Category{},
		&entities.Book{},
		&entities.BookRequest{},
		&entities.Transaction{},
		&entities.Notification{},
		&entities.ActivityLog{},
		&entities.Review{},
		&entities.ReviewVote{},
		&entities.ReadingSession{},
		&entities.WishlistItem{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	// Seed default categories
	if err := database.seedCategories(); err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) seedCategories() error {
	for _, category := range defaultCategories {
		var existing entities.Category
		result := d.DB.Where("name = ?", category.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to create category %s: %w", category.Name, err)
			}
			log.Printf("Created category: %s", category.Name)
		}
	}
	return nil
}

func (d *Database) GetCategoryByName(name string) (*entities.Category, error) {
	var category entities.Category
	err := d.DB.Where("name = ?", name).First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (d *Database) GetAllCategories() ([]entities.Category, error) {
	var categories []entities.Category
	err := d.DB.Order("name ASC").Find(&categories).Error
	return categories, err
}
