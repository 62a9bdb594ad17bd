package entities

import (
	"time"

	"gorm.io/gorm"
)

type BookStatus string

const (
	BookStatusActive   BookStatus = "active"
	BookStatusInactive BookStatus = "inactive"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

// Book is a catalog title. AvailableQuantity tracks copies on the shelf
// and must stay within [0, Quantity]; it is only ever changed through the
// guarded updates in the lending repository.
type Book struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Title              string         `gorm:"index;size:512" json:"title"`
	Author             string         `gorm:"index;size:256" json:"author"`
	ISBN               string         `gorm:"index;size:20" json:"isbn,omitempty"`
	CategoryID         uint           `gorm:"index" json:"category_id"`
	Category           Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Description        string         `gorm:"type:text" json:"description,omitempty"`
	Publisher          string         `gorm:"size:256" json:"publisher,omitempty"`
	PublicationYear    int            `json:"publication_year,omitempty"`
	Pages              int            `json:"pages,omitempty"`
	Quantity           int            `json:"quantity"`
	AvailableQuantity  int            `json:"available_quantity"`
	PDFPath            string         `gorm:"size:1024" json:"pdf_path,omitempty"`
	PDFSizeBytes       int64          `json:"pdf_size_bytes,omitempty"`
	ReadingTimeMinutes int            `json:"reading_time_minutes,omitempty"`
	CoverImage         string         `gorm:"size:1024" json:"cover_image,omitempty"`
	Status             BookStatus     `gorm:"index;size:20;default:'active'" json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

// IsAvailable reports whether at least one copy can be issued right now.
func (b *Book) IsAvailable() bool {
	return b.Status == BookStatusActive && b.AvailableQuantity > 0
}
