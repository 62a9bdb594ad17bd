package config

// Default paths and circulation policy values
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./digishelf.db"

	// DefaultLoanPeriodDays is the default loan period between issue and due date
	DefaultLoanPeriodDays = 14

	// DefaultFinePerDay is the default fine accrued per full day overdue
	DefaultFinePerDay = 1.0

	// DefaultMaxBooksPerUser caps concurrently borrowed books per member
	DefaultMaxBooksPerUser = 5
)
