// Command generate_demo creates a demo database with a small library:
// member accounts, a catalog, loans in every state, reviews, reading
// sessions and wishlists.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/digishelf/digishelf/internal/auth"
	"github.com/digishelf/digishelf/internal/database"
	"github.com/digishelf/digishelf/internal/entities"
)

const defaultDemoDatabasePath = "./demo/demo.db"

// Every demo account uses this password.
const demoPassword = "demo-password"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	users := createUsers(db)
	books := createBooks(db)
	createLoans(db, users, books)
	createEngagement(db, users, books)

	log.Println("Demo database generated successfully!")
	log.Printf("All accounts use the password %q", demoPassword)
}

func createUsers(db *database.Database) []entities.User {
	hash, err := auth.HashPassword(demoPassword, 0)
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}

	users := []entities.User{
		{
			StudentID:    "admin",
			Name:         "Head Librarian",
			Email:        "admin@library.edu",
			PasswordHash: hash,
			Role:         entities.UserRoleAdmin,
			Status:       entities.UserStatusActive,
		},
		{
			StudentID:    "CS-2023-001",
			Name:         "Asha Rao",
			Email:        "asha@campus.edu",
			PasswordHash: hash,
			Role:         entities.UserRoleMember,
			Status:       entities.UserStatusActive,
			Course:       "Computer Science",
			Year:         3,
		},
		{
			StudentID:    "ME-2024-017",
			Name:         "Ben Cole",
			Email:        "ben@campus.edu",
			PasswordHash: hash,
			Role:         entities.UserRoleMember,
			Status:       entities.UserStatusActive,
			Course:       "Mechanical Engineering",
			Year:         2,
		},
		{
			StudentID:    "BA-2022-105",
			Name:         "Carla Mendes",
			Email:        "carla@campus.edu",
			PasswordHash: hash,
			Role:         entities.UserRoleMember,
			Status:       entities.UserStatusActive,
			Course:       "Business Administration",
			Year:         4,
		},
	}

	for i := range users {
		if err := db.DB.Create(&users[i]).Error; err != nil {
			log.Fatalf("Failed to create user %s: %v", users[i].Email, err)
		}
		log.Printf("Created user: %s (%s)", users[i].Name, users[i].Role)
	}
	return users
}

func createBooks(db *database.Database) []entities.Book {
	categoryID := func(name string) uint {
		category, err := db.GetCategoryByName(name)
		if err != nil {
			log.Fatalf("Missing category %s: %v", name, err)
		}
		return category.ID
	}

	books := []entities.Book{
		{
			Title:             "The Go Programming Language",
			Author:            "Alan Donovan, Brian Kernighan",
			ISBN:              "9780134190440",
			CategoryID:        categoryID("Technology"),
			Publisher:         "Addison-Wesley",
			PublicationYear:   2015,
			Pages:             380,
			Quantity:          3,
			AvailableQuantity: 3,
			Description:       "The authoritative resource for writing idiomatic Go.",
		},
		{
			Title:             "Dune",
			Author:            "Frank Herbert",
			ISBN:              "9780441013593",
			CategoryID:        categoryID("Fiction"),
			PublicationYear:   1965,
			Pages:             412,
			Quantity:          2,
			AvailableQuantity: 2,
		},
		{
			Title:             "A Brief History of Time",
			Author:            "Stephen Hawking",
			ISBN:              "9780553380163",
			CategoryID:        categoryID("Science"),
			PublicationYear:   1988,
			Pages:             212,
			Quantity:          2,
			AvailableQuantity: 2,
		},
		{
			Title:             "The Lean Startup",
			Author:            "Eric Ries",
			ISBN:              "9780307887894",
			CategoryID:        categoryID("Business"),
			PublicationYear:   2011,
			Pages:             336,
			Quantity:          1,
			AvailableQuantity: 1,
		},
		{
			Title:             "Ways of Seeing",
			Author:            "John Berger",
			ISBN:              "9780140135152",
			CategoryID:        categoryID("Arts"),
			PublicationYear:   1972,
			Pages:             176,
			Quantity:          1,
			AvailableQuantity: 1,
		},
	}

	for i := range books {
		books[i].Status = entities.BookStatusActive
		if err := db.DB.Create(&books[i]).Error; err != nil {
			log.Fatalf("Failed to create book %s: %v", books[i].Title, err)
		}
		log.Printf("Created book: %s by %s", books[i].Title, books[i].Author)
	}
	return books
}

// createLoans seeds one loan in each state: returned on time, returned
// late with an unpaid fine, currently issued, currently overdue, plus a
// pending request.
func createLoans(db *database.Database, users []entities.User, books []entities.Book) {
	admin, asha, ben, carla := users[0], users[1], users[2], users[3]
	now := time.Now()

	onTimeReturn := now.AddDate(0, 0, -20)
	loans := []entities.Transaction{
		{
			UserID:     asha.ID,
			BookID:     books[1].ID,
			IssueDate:  now.AddDate(0, 0, -30),
			DueDate:    now.AddDate(0, 0, -16),
			ReturnDate: &onTimeReturn,
			Status:     entities.TransactionStatusReturned,
			IssuedBy:   admin.ID,
		},
		{
			UserID:     ben.ID,
			BookID:     books[2].ID,
			IssueDate:  now.AddDate(0, 0, -25),
			DueDate:    now.AddDate(0, 0, -11),
			ReturnDate: &now,
			Status:     entities.TransactionStatusReturned,
			FineAmount: 11,
			FinePaid:   false,
			IssuedBy:   admin.ID,
		},
		{
			UserID:    asha.ID,
			BookID:    books[0].ID,
			IssueDate: now.AddDate(0, 0, -3),
			DueDate:   now.AddDate(0, 0, 11),
			Status:    entities.TransactionStatusIssued,
			IssuedBy:  admin.ID,
		},
		{
			UserID:    carla.ID,
			BookID:    books[3].ID,
			IssueDate: now.AddDate(0, 0, -20),
			DueDate:   now.AddDate(0, 0, -6),
			Status:    entities.TransactionStatusIssued,
			IssuedBy:  admin.ID,
		},
	}
	for i := range loans {
		if err := db.DB.Create(&loans[i]).Error; err != nil {
			log.Fatalf("Failed to create loan: %v", err)
		}
	}

	// Reflect the two open loans in shelf counts
	for _, bookID := range []uint{books[0].ID, books[3].ID} {
		if err := db.DB.Model(&entities.Book{}).Where("id = ?", bookID).
			UpdateColumn("available_quantity", gorm.Expr("available_quantity - 1")).Error; err != nil {
			log.Fatalf("Failed to adjust availability: %v", err)
		}
	}

	request := entities.BookRequest{
		UserID:      ben.ID,
		BookID:      books[4].ID,
		RequestDate: now.AddDate(0, 0, -1),
		Status:      entities.RequestStatusPending,
		Priority:    entities.RequestPriorityNormal,
	}
	if err := db.DB.Create(&request).Error; err != nil {
		log.Fatalf("Failed to create request: %v", err)
	}

	log.Printf("Created %d loans and 1 pending request", len(loans))
}

func createEngagement(db *database.Database, users []entities.User, books []entities.Book) {
	asha, ben := users[1], users[2]
	now := time.Now()

	reviews := []entities.Review{
		{
			UserID:     asha.ID,
			BookID:     books[1].ID,
			Rating:     5,
			ReviewText: "A sweeping epic. The world-building alone is worth the read.",
			Status:     entities.ReviewStatusActive,
		},
		{
			UserID:     ben.ID,
			BookID:     books[2].ID,
			Rating:     4,
			ReviewText: "Dense in places but remarkably accessible for the subject.",
			Status:     entities.ReviewStatusActive,
		},
	}
	for i := range reviews {
		if err := db.DB.Create(&reviews[i]).Error; err != nil {
			log.Fatalf("Failed to create review: %v", err)
		}
	}

	vote := entities.ReviewVote{ReviewID: reviews[0].ID, UserID: ben.ID, VoteType: entities.VoteTypeHelpful}
	if err := db.DB.Create(&vote).Error; err != nil {
		log.Fatalf("Failed to create review vote: %v", err)
	}
	if err := db.DB.Model(&entities.Review{}).Where("id = ?", reviews[0].ID).
		UpdateColumn("helpful_count", 1).Error; err != nil {
		log.Fatalf("Failed to update helpful count: %v", err)
	}

	// A short reading streak for Asha
	for daysAgo := 3; daysAgo >= 1; daysAgo-- {
		start := now.AddDate(0, 0, -daysAgo)
		end := start.Add(45 * time.Minute)
		session := entities.ReadingSession{
			UserID:      asha.ID,
			BookID:      books[0].ID,
			StartTime:   start,
			EndTime:     &end,
			CurrentPage: (4 - daysAgo) * 30,
			PagesRead:   30,
			DeviceType:  entities.DeviceTypeWeb,
		}
		if err := db.DB.Create(&session).Error; err != nil {
			log.Fatalf("Failed to create reading session: %v", err)
		}
	}

	wishlist := []entities.WishlistItem{
		{UserID: asha.ID, BookID: books[4].ID},
		{UserID: ben.ID, BookID: books[0].ID},
	}
	for i := range wishlist {
		if err := db.DB.Create(&wishlist[i]).Error; err != nil {
			log.Fatalf("Failed to create wishlist item: %v", err)
		}
	}

	notification := entities.Notification{
		UserID:  ben.ID,
		Title:   "Fine outstanding",
		Message: "You have an unpaid fine of 11.00 from a late return.",
		Type:    entities.NotificationTypeWarning,
	}
	if err := db.DB.Create(&notification).Error; err != nil {
		log.Fatalf("Failed to create notification: %v", err)
	}

	log.Printf("Created reviews, reading sessions, wishlists and notifications")
}
