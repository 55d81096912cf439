package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alghaibb/kick-back-sub002/internal/circuitbreaker"
	"github.com/alghaibb/kick-back-sub002/internal/domain"
)

type mockEmailSender struct {
	mu    sync.Mutex
	err   error
	calls int
	to    string
}

func (m *mockEmailSender) Send(ctx context.Context, to string, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.to = to
	return m.err
}

func (m *mockEmailSender) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockSMSSender struct {
	mu    sync.Mutex
	err   error
	calls int
	to    string
}

func (m *mockSMSSender) Send(ctx context.Context, toE164, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.to = toE164
	return m.err
}

func (m *mockSMSSender) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func candidate(typ domain.ReminderType, phone string) domain.Candidate {
	return domain.Candidate{
		Event: domain.Event{ID: uuid.New(), Name: "BBQ", Date: time.Now().Add(24 * time.Hour)},
		User: domain.User{
			ID:           uuid.New(),
			Email:        "alice@example.com",
			PhoneNumber:  phone,
			ReminderType: typ,
			ReminderTime: "09:00",
			Timezone:     "Australia/Sydney",
		},
	}
}

func TestDispatch_EmailOnly(t *testing.T) {
	email := &mockEmailSender{}
	sms := &mockSMSSender{}
	d := New(email, sms, "AU")

	out := d.Dispatch(context.Background(), candidate(domain.ReminderTypeEmail, ""))

	if out.Status != domain.OutcomeSent || !out.EmailSent || out.SMSSent {
		t.Fatalf("outcome = %+v, want email-only sent", out)
	}
	if sms.callCount() != 0 {
		t.Error("sms sender must not be called for email-only users")
	}
}

func TestDispatch_SMSNormalizesNumber(t *testing.T) {
	email := &mockEmailSender{}
	sms := &mockSMSSender{}
	d := New(email, sms, "US")

	out := d.Dispatch(context.Background(), candidate(domain.ReminderTypeSMS, "0412 345 678"))

	if out.Status != domain.OutcomeSent || !out.SMSSent {
		t.Fatalf("outcome = %+v, want sms sent", out)
	}
	if sms.to != "+61412345678" {
		t.Errorf("sms sent to %q, want E.164 via Sydney timezone inference", sms.to)
	}
	if email.callCount() != 0 {
		t.Error("email sender must not be called for sms-only users")
	}
}

// spec scenario: reminderType = both, email times out, sms succeeds.
// The outcome still counts as sent and carries the email failure.
func TestDispatch_BothChannelsIndependent(t *testing.T) {
	email := &mockEmailSender{err: errors.New("email: dial: i/o timeout")}
	sms := &mockSMSSender{}
	d := New(email, sms, "AU")

	out := d.Dispatch(context.Background(), candidate(domain.ReminderTypeBoth, "+61412345678"))

	if out.Status != domain.OutcomeSent {
		t.Fatalf("status = %s, want sent (one channel succeeded)", out.Status)
	}
	if out.EmailSent || out.EmailErr == "" {
		t.Errorf("email should be recorded as failed: %+v", out)
	}
	if !out.SMSSent || out.SMSErr != "" {
		t.Errorf("sms should be recorded as sent: %+v", out)
	}
	if sms.callCount() != 1 {
		t.Error("sms must still be attempted after the email failure")
	}
}

func TestDispatch_AllChannelsFail(t *testing.T) {
	email := &mockEmailSender{err: errors.New("smtp down")}
	sms := &mockSMSSender{err: errors.New("provider down")}
	d := New(email, sms, "AU")

	out := d.Dispatch(context.Background(), candidate(domain.ReminderTypeBoth, "+61412345678"))

	if out.Status != domain.OutcomeFailedChannel {
		t.Fatalf("status = %s, want failed_channel", out.Status)
	}
	if out.Sent() {
		t.Error("outcome must not report sent when every channel failed")
	}
}

// spec scenario: sms preference with no phone number on file fails
// immediately with a validation-style error; the provider is never called.
func TestDispatch_SMSNoPhoneNumber(t *testing.T) {
	email := &mockEmailSender{}
	sms := &mockSMSSender{}
	d := New(email, sms, "AU")

	out := d.Dispatch(context.Background(), candidate(domain.ReminderTypeSMS, ""))

	if out.Status != domain.OutcomeFailedChannel {
		t.Fatalf("status = %s, want failed_channel", out.Status)
	}
	if out.SMSErr == "" {
		t.Error("outcome must record the missing-number failure")
	}
	if sms.callCount() != 0 {
		t.Error("provider must not be called without a number")
	}
}

func TestDispatch_BreakerFailsFast(t *testing.T) {
	email := &mockEmailSender{err: errors.New("smtp down")}
	sms := &mockSMSSender{}
	cb := circuitbreaker.New(1, time.Hour)
	d := New(email, sms, "AU").WithBreaker(cb)

	// First candidate trips the email breaker.
	d.Dispatch(context.Background(), candidate(domain.ReminderTypeEmail, ""))

	out := d.Dispatch(context.Background(), candidate(domain.ReminderTypeEmail, ""))
	if out.Status != domain.OutcomeFailedChannel {
		t.Fatalf("status = %s, want failed_channel while the circuit is open", out.Status)
	}
	if email.callCount() != 1 {
		t.Errorf("email sender called %d times, want 1 (second send short-circuited)", email.callCount())
	}

	// A failing email channel must not open the sms channel.
	smsOut := d.Dispatch(context.Background(), candidate(domain.ReminderTypeSMS, "+61412345678"))
	if smsOut.Status != domain.OutcomeSent {
		t.Fatalf("sms status = %s, want sent", smsOut.Status)
	}
}

func TestDispatch_UnknownTypeFallsBackToEmail(t *testing.T) {
	email := &mockEmailSender{}
	sms := &mockSMSSender{}
	d := New(email, sms, "AU")

	out := d.Dispatch(context.Background(), candidate(domain.ReminderType("carrier-pigeon"), ""))

	if !out.EmailSent {
		t.Fatalf("outcome = %+v, want email fallback", out)
	}
	if sms.callCount() != 0 {
		t.Error("sms must not be attempted for unknown types")
	}
}
