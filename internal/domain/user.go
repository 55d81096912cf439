package domain

import "github.com/google/uuid"

type ReminderType string

const (
	ReminderTypeEmail ReminderType = "email"
	ReminderTypeSMS   ReminderType = "sms"
	ReminderTypeBoth  ReminderType = "both"
)

// WantsEmail reports whether the email channel is enabled for this type.
func (t ReminderType) WantsEmail() bool {
	return t == ReminderTypeEmail || t == ReminderTypeBoth
}

// WantsSMS reports whether the sms channel is enabled for this type.
func (t ReminderType) WantsSMS() bool {
	return t == ReminderTypeSMS || t == ReminderTypeBoth
}

// User is the reminder-relevant projection of an account.
// Profile and settings CRUD live in the web app; this engine only reads.
type User struct {
	ID          uuid.UUID
	Email       string
	PhoneNumber string // may be empty even when ReminderType requires it

	ReminderType ReminderType
	ReminderTime string // wall-clock "HH:mm" in the user's own timezone
	Timezone     string // IANA zone name; empty means UTC
}
