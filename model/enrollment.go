package model

import (
	"time"

	"gorm.io/gorm"
)

// EnrollmentStatus represents the lifecycle state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusDropped   EnrollmentStatus = "dropped"
)

// Enrollment joins a user to a course. Unique per (user, course) pair.
type Enrollment struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	DeletedAt         gorm.DeletedAt   `gorm:"index" json:"-"`
	UserID            uint             `gorm:"not null;uniqueIndex:idx_user_course" json:"user_id"`
	CourseID          uint             `gorm:"not null;uniqueIndex:idx_user_course" json:"course_id"`
	EnrolledAt        time.Time        `gorm:"autoCreateTime" json:"enrolled_at"`
	Status            EnrollmentStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	Progress          int              `gorm:"default:0;check:progress >= 0 AND progress <= 100" json:"progress"`
	CompletedLessons  int              `gorm:"default:0" json:"completed_lessons"`
	LastAccessedAt    time.Time        `json:"last_accessed_at"`
	CertificateIssued bool             `gorm:"default:false" json:"certificate_issued"`
	Rating            *float64         `json:"rating,omitempty"`
	Review            string           `gorm:"type:text" json:"review,omitempty"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}
