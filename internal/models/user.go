package models

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultLanguage is the notification language used when none is stored
const DefaultLanguage = "en"

// User represents a user in the system
type User struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewUser creates a new user with a generated UUID
func NewUser(name, email string) *User {
	return &User{
		UUID:  uuid.NewString(),
		Name:  name,
		Email: strings.TrimSpace(email),
	}
}

// NotificationPreference holds per-user notification settings
type NotificationPreference struct {
	UserUUID     string `json:"userUuid"`
	EmailEnabled bool   `json:"emailEnabled"`
	HTMLEmail    bool   `json:"htmlEmail"`
	PushEnabled  bool   `json:"pushEnabled"`
	Language     string `json:"language"`
}

// DefaultNotificationPreference returns the settings used for users without a stored row:
// HTML email on, push off, English.
func DefaultNotificationPreference(userUUID string) *NotificationPreference {
	return &NotificationPreference{
		UserUUID:     userUUID,
		EmailEnabled: true,
		HTMLEmail:    true,
		PushEnabled:  false,
		Language:     DefaultLanguage,
	}
}

// AnyChannelEnabled reports whether at least one delivery channel is switched on
func (p *NotificationPreference) AnyChannelEnabled() bool {
	return p.EmailEnabled || p.PushEnabled
}

// NotificationPreferencesUpdate is the request body for changing preferences.
// Nil fields keep their current value.
type NotificationPreferencesUpdate struct {
	EmailEnabled *bool   `json:"emailEnabled,omitempty"`
	HTMLEmail    *bool   `json:"htmlEmail,omitempty"`
	PushEnabled  *bool   `json:"pushEnabled,omitempty"`
	Language     *string `json:"language,omitempty"`
}

// Apply merges the update into p
func (u *NotificationPreferencesUpdate) Apply(p *NotificationPreference) {
	if u.EmailEnabled != nil {
		p.EmailEnabled = *u.EmailEnabled
	}
	if u.HTMLEmail != nil {
		p.HTMLEmail = *u.HTMLEmail
	}
	if u.PushEnabled != nil {
		p.PushEnabled = *u.PushEnabled
	}
	if u.Language != nil {
		p.Language = strings.TrimSpace(*u.Language)
	}
	if p.Language == "" {
		p.Language = DefaultLanguage
	}
}
