package entities

import "time"

type ReviewStatus string

const (
	ReviewStatusActive ReviewStatus = "active"
	ReviewStatusHidden ReviewStatus = "hidden"
)

// Review is a member's rating of a book they have borrowed. One review
// per (user, book).
type Review struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"index;uniqueIndex:idx_reviews_user_book" json:"user_id"`
	BookID       uint         `gorm:"index;uniqueIndex:idx_reviews_user_book" json:"book_id"`
	Rating       int          `json:"rating"` // 1..5
	ReviewText   string       `gorm:"type:text" json:"review_text,omitempty"`
	Status       ReviewStatus `gorm:"size:20;default:'active'" json:"status"`
	HelpfulCount int          `json:"helpful_count"`
	User         User         `gorm:"foreignKey:UserID" json:"-"`
	Book         Book         `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

type VoteType string

const (
	VoteTypeHelpful    VoteType = "helpful"
	VoteTypeNotHelpful VoteType = "not_helpful"
)

// ReviewVote records one member's verdict on a review. A repeated vote
// replaces the previous one.
type ReviewVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"index;uniqueIndex:idx_review_votes_review_user" json:"review_id"`
	UserID    uint      `gorm:"index;uniqueIndex:idx_review_votes_review_user" json:"user_id"`
	VoteType  VoteType  `gorm:"size:20" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReviewVote) TableName() string {
	return "review_votes"
}

type DeviceType string

const (
	DeviceTypeWeb    DeviceType = "web"
	DeviceTypeMobile DeviceType = "mobile"
	DeviceTypeTablet DeviceType = "tablet"
)

// ReadingSession tracks one sitting with a book. An open session has a
// nil EndTime; starting a new session for the same pair closes it first.
type ReadingSession struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index" json:"user_id"`
	BookID      uint       `gorm:"index" json:"book_id"`
	StartTime   time.Time  `gorm:"index" json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	CurrentPage int        `json:"current_page"`
	PagesRead   int        `json:"pages_read"`
	DeviceType  DeviceType `gorm:"size:20;default:'web'" json:"device_type"`
	User        User       `gorm:"foreignKey:UserID" json:"-"`
	Book        Book       `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (ReadingSession) TableName() string {
	return "reading_sessions"
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;uniqueIndex:idx_wishlist_user_book" json:"user_id"`
	BookID    uint      `gorm:"index;uniqueIndex:idx_wishlist_user_book" json:"book_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Book      Book      `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
