package model

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType categorizes notifications
type NotificationType string

const (
	NotificationTypeCourse       NotificationType = "course"
	NotificationTypeSystem       NotificationType = "system"
	NotificationTypeAssignment   NotificationType = "assignment"
	NotificationTypeGeneral      NotificationType = "general"
	NotificationTypeAnnouncement NotificationType = "announcement"
)

// NotificationAudience is the abstract target of a notification. It is
// resolved to a concrete recipient snapshot when the notification is created.
type NotificationAudience string

const (
	AudienceAll         NotificationAudience = "all"
	AudienceStudents    NotificationAudience = "students"    // role=user
	AudienceInstructors NotificationAudience = "instructors" // role=admin
	AudienceSpecific    NotificationAudience = "specific"
)

// NotificationPriority ranks notification urgency
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// NotificationStatus represents the delivery state.
// scheduled notifications are promoted to sent by the cron dispatcher.
type NotificationStatus string

const (
	NotificationStatusDraft     NotificationStatus = "draft"
	NotificationStatusScheduled NotificationStatus = "scheduled"
	NotificationStatusSent      NotificationStatus = "sent"
)

// Notification is a broadcast or targeted in-app message
type Notification struct {
	ID             uint                 `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	DeletedAt      gorm.DeletedAt       `gorm:"index" json:"-"`
	Title          string               `gorm:"type:varchar(255);not null" json:"title"`
	Message        string               `gorm:"type:text;not null" json:"message"`
	Type           NotificationType     `gorm:"type:varchar(20);default:'general';index" json:"type"`
	TargetAudience NotificationAudience `gorm:"type:varchar(20);default:'all'" json:"target_audience"`
	Priority       NotificationPriority `gorm:"type:varchar(10);default:'medium'" json:"priority"`
	Status         NotificationStatus   `gorm:"type:varchar(20);default:'sent';index" json:"status"`
	ScheduledFor   *time.Time           `gorm:"index" json:"scheduled_for,omitempty"`
	SentAt         *time.Time           `json:"sent_at,omitempty"`
	SentByID       uint                 `gorm:"not null;index" json:"sent_by_id"`
	Link           string               `gorm:"type:varchar(512)" json:"link,omitempty"`
	Icon           string               `gorm:"type:varchar(50)" json:"icon,omitempty"`

	// Relationships
	SentBy     User                    `gorm:"foreignKey:SentByID;constraint:OnDelete:CASCADE" json:"sent_by,omitempty"`
	Recipients []NotificationRecipient `gorm:"foreignKey:NotificationID;constraint:OnDelete:CASCADE" json:"recipients,omitempty"`
}

// NotificationRecipient is one row of the audience snapshot taken at creation
// time. Read and dismissal state is tracked per recipient; users created after
// the fan-out are never added retroactively.
type NotificationRecipient struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	NotificationID uint       `gorm:"not null;uniqueIndex:idx_notification_user" json:"notification_id"`
	UserID         uint       `gorm:"not null;uniqueIndex:idx_notification_user;index" json:"user_id"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	Dismissed      bool       `gorm:"default:false" json:"dismissed"`

	// Relationships
	Notification Notification `gorm:"foreignKey:NotificationID;constraint:OnDelete:CASCADE" json:"-"`
	User         User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for NotificationRecipient
func (NotificationRecipient) TableName() string {
	return "notification_recipients"
}

// FeedItem is a notification annotated with the requesting user's own state
type FeedItem struct {
	ID        uint                 `json:"id"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Type      NotificationType     `json:"type"`
	Priority  NotificationPriority `json:"priority"`
	Link      string               `json:"link,omitempty"`
	Icon      string               `json:"icon,omitempty"`
	Read      bool                 `json:"read"`
	CreatedAt time.Time            `json:"created_at"`
}
