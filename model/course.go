package model

import (
	"time"

	"gorm.io/gorm"
)

// CourseStatus represents the publication state of a course
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// Course represents a catalog entry
type Course struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	Instructor    string         `gorm:"not null" json:"instructor"`
	Duration      string         `gorm:"type:varchar(50)" json:"duration"` // e.g., "6 weeks"
	Price         float64        `gorm:"not null;check:price >= 0" json:"price"`
	Image         string         `gorm:"type:varchar(512)" json:"image"`
	Status        CourseStatus   `gorm:"type:varchar(20);default:'published';index" json:"status"`
	Category      string         `gorm:"type:varchar(100);index" json:"category"`
	Level         string         `gorm:"type:varchar(20);default:'beginner'" json:"level"` // beginner, intermediate, advanced
	EnrolledCount int64          `gorm:"default:0" json:"enrolled_count"`
	Rating        float64        `gorm:"default:0" json:"rating"`
	CreatedByID   *uint          `gorm:"index" json:"created_by_id,omitempty"`

	// Relationships
	CreatedBy   *User        `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"created_by,omitempty"`
	Enrollments []Enrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}
