package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attendee joins a user to an event.
//
// LastReminderSent is the idempotency marker. It is mutated only by this
// engine, exactly once per successful dispatch, and once set on local
// calendar day D it must not be updated again while "now" is still within
// day D in the attendee's timezone.
type Attendee struct {
	EventID uuid.UUID
	UserID  uuid.UUID

	RSVPStatus       string
	LastReminderSent *time.Time
}

// Candidate is an (event, attendee, prefs) tuple produced by the selector.
// It lives only for the duration of one runner invocation.
type Candidate struct {
	Event    Event
	Attendee Attendee
	User     User
}
