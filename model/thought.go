package model

import (
	"time"

	"gorm.io/gorm"
)

// ThoughtStatus represents the moderation state of a thought.
// Legal transitions: pending -> approved, pending -> rejected.
type ThoughtStatus string

const (
	ThoughtStatusPending  ThoughtStatus = "pending"
	ThoughtStatusApproved ThoughtStatus = "approved"
	ThoughtStatusRejected ThoughtStatus = "rejected"
)

// Thought is a short user submission that an admin may publish as a notification
type Thought struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Title         string         `gorm:"type:varchar(200);not null" json:"title"`
	Message       string         `gorm:"type:varchar(1000);not null" json:"message"`
	SubmittedByID uint           `gorm:"not null;index:idx_thoughts_submitter_status" json:"submitted_by_id"`
	Status        ThoughtStatus  `gorm:"type:varchar(20);default:'pending';index:idx_thoughts_submitter_status" json:"status"`

	// Review metadata, set on approval or rejection
	ReviewedByID *uint      `gorm:"index" json:"reviewed_by_id,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes  string     `gorm:"type:varchar(500)" json:"review_notes,omitempty"`

	// Notification created when the thought is approved
	NotificationID *uint `gorm:"index" json:"notification_id,omitempty"`

	// Relationships
	SubmittedBy  User          `gorm:"foreignKey:SubmittedByID;constraint:OnDelete:CASCADE" json:"submitted_by,omitempty"`
	ReviewedBy   *User         `gorm:"foreignKey:ReviewedByID;constraint:OnDelete:SET NULL" json:"reviewed_by,omitempty"`
	Notification *Notification `gorm:"foreignKey:NotificationID;constraint:OnDelete:SET NULL" json:"notification,omitempty"`
}

const (
	// MaxThoughtTitleLength is the longest title a user may submit
	MaxThoughtTitleLength = 200
	// MaxThoughtMessageLength is the longest message a user may submit
	MaxThoughtMessageLength = 1000
	// MaxReviewNotesLength bounds the admin's review notes
	MaxReviewNotesLength = 500
)
