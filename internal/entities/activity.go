package entities

import "time"

// Common activity actions recorded by the workflow. Free-form strings are
// allowed; these cover the built-in call sites.
const (
	ActivityActionLogin          = "login"
	ActivityActionLoginFailed    = "login_failed"
	ActivityActionRegister       = "register"
	ActivityActionProfileUpdated = "profile_updated"
	ActivityActionBookRequested  = "book_requested"
	ActivityActionBookIssued     = "book_issued"
	ActivityActionBookReturned   = "book_returned"
	ActivityActionRequestDenied  = "request_rejected"
	ActivityActionFinePaid       = "fine_paid"
	ActivityActionMemberBlocked  = "member_blocked"
	ActivityActionReviewAdded    = "review_added"
)

// ActivityLog is an append-only record of workflow events. Entries are
// never updated after creation; old rows are pruned by the retention task.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"` // Nil for system events
	Action    string    `gorm:"index;size:100" json:"action"`
	Details   string    `gorm:"size:1000" json:"details,omitempty"`
	IPAddress string    `gorm:"size:45" json:"ip_address,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
