package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Avatar       string         `gorm:"type:varchar(512)" json:"avatar"`
	Role         string         `gorm:"type:varchar(20);default:'user';index" json:"role"` // user, admin
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	Coins        int64          `gorm:"default:0;check:coins >= 0" json:"coins"`

	// Relationships
	Enrollments      []Enrollment      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
	CoinTransactions []CoinTransaction `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Doubts           []Doubt           `gorm:"foreignKey:AskedByID;constraint:OnDelete:CASCADE" json:"-"`
	Thoughts         []Thought         `gorm:"foreignKey:SubmittedByID;constraint:OnDelete:CASCADE" json:"-"`
	AdminAuditLogs   []AdminAuditLog   `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// CoinTransactionType distinguishes credits from debits in the ledger
type CoinTransactionType string

const (
	CoinTransactionEarned CoinTransactionType = "earned"
	CoinTransactionSpent  CoinTransactionType = "spent"
)

// CoinTransaction is an append-only ledger entry for a user's coin balance.
// The sum of a user's transaction amounts must always equal User.Coins.
type CoinTransaction struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	UserID    uint                `gorm:"not null;index" json:"user_id"`
	Amount    int64               `gorm:"not null" json:"amount"` // signed: negative for "spent"
	Type      CoinTransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Reason    string              `gorm:"type:varchar(255);not null" json:"reason"`
	DoubtID   *uint               `gorm:"index" json:"doubt_id,omitempty"`
	ThoughtID *uint               `gorm:"index" json:"thought_id,omitempty"`

	// Relationships
	User    User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Doubt   *Doubt   `gorm:"foreignKey:DoubtID;constraint:OnDelete:SET NULL" json:"doubt,omitempty"`
	Thought *Thought `gorm:"foreignKey:ThoughtID;constraint:OnDelete:SET NULL" json:"thought,omitempty"`
}

// TableName specifies the table name for CoinTransaction
func (CoinTransaction) TableName() string {
	return "coin_transactions"
}

// UserResponse is the public projection of a User
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	Coins     int64     `json:"coins"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts a User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Avatar:    u.Avatar,
		Role:      u.Role,
		IsActive:  u.IsActive,
		Coins:     u.Coins,
		CreatedAt: u.CreatedAt,
	}
}
