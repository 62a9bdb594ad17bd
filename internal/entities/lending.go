package entities

import "time"

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

type RequestPriority string

const (
	RequestPriorityNormal RequestPriority = "normal"
	RequestPriorityHigh   RequestPriority = "high"
)

// BookRequest is a member's ask to borrow a title. Approved and rejected
// are terminal; at most one pending request may exist per (user, book).
type BookRequest struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"index" json:"user_id"`
	BookID          uint            `gorm:"index" json:"book_id"`
	RequestDate     time.Time       `json:"request_date"`
	Status          RequestStatus   `gorm:"index;size:20;default:'pending'" json:"status"`
	Priority        RequestPriority `gorm:"size:20;default:'normal'" json:"priority"`
	RejectionReason string          `gorm:"size:500" json:"rejection_reason,omitempty"`
	User            User            `gorm:"foreignKey:UserID" json:"-"`
	Book            Book            `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (BookRequest) TableName() string {
	return "book_requests"
}

type TransactionStatus string

const (
	TransactionStatusIssued   TransactionStatus = "issued"
	TransactionStatusReturned TransactionStatus = "returned"
)

// Transaction is an open or closed loan. "Overdue" is never stored; it is
// derived from DueDate against the current time at every call site.
type Transaction struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	UserID     uint              `gorm:"index" json:"user_id"`
	BookID     uint              `gorm:"index" json:"book_id"`
	IssueDate  time.Time         `json:"issue_date"`
	DueDate    time.Time         `gorm:"index" json:"due_date"`
	ReturnDate *time.Time        `json:"return_date,omitempty"`
	Status     TransactionStatus `gorm:"index;size:20;default:'issued'" json:"status"`
	FineAmount float64           `json:"fine_amount"`
	FinePaid   bool              `gorm:"default:false" json:"fine_paid"`
	IssuedBy   uint              `json:"issued_by"` // Admin who issued the book
	User       User              `gorm:"foreignKey:UserID" json:"-"`
	Book       Book              `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
