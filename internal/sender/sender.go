// Package sender holds the delivery collaborators for the reminder engine.
// Both senders are best-effort: failures come back as errors for the
// dispatcher to record, never as panics, and every external call is bounded
// by the caller's context plus the sender's own timeout.
package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/alghaibb/kick-back-sub002/internal/domain"
)

// EmailSender delivers an event reminder to an email address.
type EmailSender interface {
	Send(ctx context.Context, to string, event domain.Event) error
}

// SMSSender delivers a message body to an E.164 phone number.
// Normalization is the caller's job; senders do not parse numbers.
type SMSSender interface {
	Send(ctx context.Context, toE164, body string) error
}

// Subject renders the reminder email subject.
func Subject(event domain.Event) string {
	return fmt.Sprintf("Reminder: %s is tomorrow", event.Name)
}

// Body renders the plain-text reminder body shared by both channels.
func Body(event domain.Event) string {
	msg := fmt.Sprintf("Don't forget: %s is on tomorrow at %s.",
		event.Name, event.Date.UTC().Format(time.RFC1123))
	if event.Location != "" {
		msg += fmt.Sprintf(" Location: %s.", event.Location)
	}
	return msg
}
