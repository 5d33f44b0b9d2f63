package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EmailNotificationSettings controls what email the user receives
type EmailNotificationSettings struct {
	Enabled       bool `json:"enabled"`
	CourseUpdates bool `json:"course_updates"`
	NewContent    bool `json:"new_content"`
	SystemAlerts  bool `json:"system_alerts"`
	Marketing     bool `json:"marketing"`
}

// PushNotificationSettings controls in-app push behavior
type PushNotificationSettings struct {
	Enabled         bool `json:"enabled"`
	CourseReminders bool `json:"course_reminders"`
	Assignments     bool `json:"assignments"`
	Messages        bool `json:"messages"`
}

// NotificationSettings groups all notification channels
type NotificationSettings struct {
	Email EmailNotificationSettings `json:"email"`
	Push  PushNotificationSettings  `json:"push"`
}

// PrivacySettings controls profile visibility
type PrivacySettings struct {
	ProfileVisibility string `json:"profile_visibility"` // public, students, private
	ShowEnrollments   bool   `json:"show_enrollments"`
	ShowProgress      bool   `json:"show_progress"`
	AllowMessages     bool   `json:"allow_messages"`
	DataSharing       bool   `json:"data_sharing"`
}

// PreferenceSettings holds general UI/locale preferences
type PreferenceSettings struct {
	Language    string `json:"language"`
	Timezone    string `json:"timezone"`
	DarkMode    bool   `json:"dark_mode"`
	EmailDigest string `json:"email_digest"` // daily, weekly, monthly, never
}

// SecuritySettings holds account security toggles
type SecuritySettings struct {
	TwoFactorEnabled      bool `json:"two_factor_enabled"`
	LoginAlerts           bool `json:"login_alerts"`
	SessionTimeoutMinutes int  `json:"session_timeout_minutes"`
}

// Settings is the one-to-one per-user settings record, created lazily with
// defaults on first access.
type Settings struct {
	ID            uint                                      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time                                 `json:"created_at"`
	UpdatedAt     time.Time                                 `json:"updated_at"`
	DeletedAt     gorm.DeletedAt                            `gorm:"index" json:"-"`
	UserID        uint                                      `gorm:"not null;uniqueIndex" json:"user_id"`
	Notifications datatypes.JSONType[NotificationSettings]  `json:"notifications"`
	Privacy       datatypes.JSONType[PrivacySettings]       `json:"privacy"`
	Preferences   datatypes.JSONType[PreferenceSettings]    `json:"preferences"`
	Security      datatypes.JSONType[SecuritySettings]      `json:"security"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// DefaultSettings returns a Settings record populated with defaults for a user
func DefaultSettings(userID uint) Settings {
	return Settings{
		UserID: userID,
		Notifications: datatypes.NewJSONType(NotificationSettings{
			Email: EmailNotificationSettings{
				Enabled:       true,
				CourseUpdates: true,
				NewContent:    true,
				SystemAlerts:  true,
				Marketing:     false,
			},
			Push: PushNotificationSettings{
				Enabled:         true,
				CourseReminders: true,
				Assignments:     true,
				Messages:        true,
			},
		}),
		Privacy: datatypes.NewJSONType(PrivacySettings{
			ProfileVisibility: "students",
			ShowEnrollments:   true,
			ShowProgress:      true,
			AllowMessages:     true,
			DataSharing:       false,
		}),
		Preferences: datatypes.NewJSONType(PreferenceSettings{
			Language:    "en",
			Timezone:    "UTC",
			DarkMode:    false,
			EmailDigest: "weekly",
		}),
		Security: datatypes.NewJSONType(SecuritySettings{
			TwoFactorEnabled:      false,
			LoginAlerts:           true,
			SessionTimeoutMinutes: 30,
		}),
	}
}
