package lending

import "errors"

var (
	// ErrBookNotFound is returned when the referenced book does not exist
	// or is inactive.
	ErrBookNotFound = errors.New("book not found")

	// ErrAlreadyBorrowed is returned when the user already holds an issued
	// copy of the book.
	ErrAlreadyBorrowed = errors.New("book already borrowed")

	// ErrDuplicateRequest is returned when the user already has a pending
	// request for the book.
	ErrDuplicateRequest = errors.New("duplicate pending request")

	// ErrRequestNotFound is returned when a request is missing or no
	// longer pending.
	ErrRequestNotFound = errors.New("pending request not found")

	// ErrOutOfStock is returned when no copies are available to issue.
	ErrOutOfStock = errors.New("no copies available")

	// ErrTransactionNotFound is returned when the referenced loan does not
	// exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrNotIssued is returned when a return is attempted on a loan that
	// has already been closed.
	ErrNotIssued = errors.New("book is not currently issued")

	// ErrBorrowLimitReached is returned when the user already holds the
	// maximum number of concurrently issued books.
	ErrBorrowLimitReached = errors.New("borrow limit reached")

	// ErrUserBlocked is returned when a blocked account tries to borrow.
	ErrUserBlocked = errors.New("account is blocked")
)
