package model

import (
	"time"

	"gorm.io/gorm"
)

// ContentStatus represents the publication state of a content item
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

// Content is a study material record (video, article, document, link)
type Content struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Type        string         `gorm:"type:varchar(20);default:'article';index" json:"type"` // video, article, document, link
	Category    string         `gorm:"type:varchar(100);index" json:"category"`
	URL         string         `gorm:"type:varchar(512);not null" json:"url"`
	Status      ContentStatus  `gorm:"type:varchar(20);default:'published';index" json:"status"`
	Views       int64          `gorm:"default:0" json:"views"`
	Downloads   int64          `gorm:"default:0" json:"downloads"`
	CreatedByID *uint          `gorm:"index" json:"created_by_id,omitempty"`

	// Relationships
	CreatedBy *User `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"created_by,omitempty"`
}
