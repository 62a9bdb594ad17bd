// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, category seeding
//	├── books/           # Catalog CRUD and availability
//	├── users/           # Member accounts and admin member views
//	├── lending/         # Requests, loans and fines
//	├── reviews/         # Book reviews and helpfulness votes
//	├── reading/         # Reading sessions and streaks
//	├── wishlist/        # Member wishlists
//	├── notifications/   # In-app notifications
//	├── activity/        # Activity log
//	├── recommend/       # Recommendation queries
//	├── stats/           # Dashboard aggregates
//	└── reports/         # Report row queries
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific
// operations, constructed from the shared *gorm.DB:
//
//	repo := lending.NewRepository(db.DB)
//	loans, err := repo.ListOpenLoans()
//
// Repositories hold no state beyond the connection and are safe for
// concurrent use.
package database
