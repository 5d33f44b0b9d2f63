package model

import (
	"time"

	"gorm.io/gorm"
)

// DoubtStatus represents the state of a doubt.
// Legal transitions: pending -> answered, pending -> closed, answered -> closed.
type DoubtStatus string

const (
	DoubtStatusPending  DoubtStatus = "pending"
	DoubtStatusAnswered DoubtStatus = "answered"
	DoubtStatusClosed   DoubtStatus = "closed"
)

// Doubt is a user-submitted question awaiting an admin response
type Doubt struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Question  string         `gorm:"type:varchar(1000);not null" json:"question"`
	AskedByID uint           `gorm:"not null;index:idx_doubts_asker_status" json:"asked_by_id"`
	Status    DoubtStatus    `gorm:"type:varchar(20);default:'pending';index:idx_doubts_asker_status" json:"status"`

	// Embedded admin response, set when the doubt is answered
	ResponseTitle       string     `gorm:"type:varchar(200)" json:"response_title,omitempty"`
	ResponseDescription string     `gorm:"type:varchar(2000)" json:"response_description,omitempty"`
	ResponseURL         string     `gorm:"type:varchar(512)" json:"response_url,omitempty"`
	AnsweredByID        *uint      `gorm:"index" json:"answered_by_id,omitempty"`
	AnsweredAt          *time.Time `json:"answered_at,omitempty"`

	// Reward projection. The coin ledger is the source of truth; these are
	// written in the same transaction as the ledger rows.
	CoinsAwarded   int64 `gorm:"default:0" json:"coins_awarded"`
	IsCoinsAwarded bool  `gorm:"default:false" json:"is_coins_awarded"`

	// Relationships
	AskedBy    User  `gorm:"foreignKey:AskedByID;constraint:OnDelete:CASCADE" json:"asked_by,omitempty"`
	AnsweredBy *User `gorm:"foreignKey:AnsweredByID;constraint:OnDelete:SET NULL" json:"answered_by,omitempty"`
}

// MaxQuestionLength is the longest question a user may submit
const MaxQuestionLength = 1000
