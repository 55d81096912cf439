package domain

import (
	"time"

	"github.com/google/uuid"
)

type OutcomeStatus string

const (
	OutcomeSent             OutcomeStatus = "sent"
	OutcomeSkippedWindow    OutcomeStatus = "skipped_window"
	OutcomeSkippedSent      OutcomeStatus = "skipped_already_sent"
	OutcomeSkippedTomorrow  OutcomeStatus = "skipped_not_tomorrow"
	OutcomeFailedChannel    OutcomeStatus = "failed_channel"
	OutcomeFailedEvaluation OutcomeStatus = "failed_evaluation"
)

// Outcome records what happened to one candidate during one invocation.
type Outcome struct {
	EventID uuid.UUID
	UserID  uuid.UUID
	Status  OutcomeStatus

	EmailSent bool
	SMSSent   bool
	EmailErr  string
	SMSErr    string
}

// Sent reports whether at least one requested channel succeeded.
func (o Outcome) Sent() bool {
	return o.EmailSent || o.SMSSent
}

// ReminderLog is the persisted per-channel dispatch record.
type ReminderLog struct {
	ID      uuid.UUID
	EventID uuid.UUID
	UserID  uuid.UUID

	Channel string // "email" or "sms"
	Status  string // "sent" or "failed"
	Error   string

	SentAt time.Time
}

// Summary aggregates outcomes for one runner invocation. It is the body of
// the trigger endpoint's JSON response.
type Summary struct {
	Candidates int

	SentEmail int
	SentSMS   int

	SkippedWindow      int
	SkippedAlreadySent int
	SkippedNotTomorrow int

	FailedEmail      int
	FailedSMS        int
	FailedEvaluation int

	StartedAt  time.Time
	FinishedAt time.Time
}

// Add folds one outcome into the summary.
func (s *Summary) Add(o Outcome) {
	if o.EmailSent {
		s.SentEmail++
	}
	if o.SMSSent {
		s.SentSMS++
	}
	if o.EmailErr != "" {
		s.FailedEmail++
	}
	if o.SMSErr != "" {
		s.FailedSMS++
	}

	switch o.Status {
	case OutcomeSkippedWindow:
		s.SkippedWindow++
	case OutcomeSkippedSent:
		s.SkippedAlreadySent++
	case OutcomeSkippedTomorrow:
		s.SkippedNotTomorrow++
	case OutcomeFailedEvaluation:
		s.FailedEvaluation++
	}
}
