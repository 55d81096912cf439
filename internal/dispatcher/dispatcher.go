// Package dispatcher routes a qualified reminder candidate to the email
// and/or sms collaborators according to the attendee's preference.
//
// Failure isolation is the package's contract: a failing channel never
// blocks the other channel, and nothing here propagates an error that
// could abort the batch. Everything the caller needs to know comes back
// in the Outcome.
package dispatcher

import (
	"context"
	"log"
	"time"

	"github.com/alghaibb/kick-back-sub002/internal/circuitbreaker"
	"github.com/alghaibb/kick-back-sub002/internal/domain"
	"github.com/alghaibb/kick-back-sub002/internal/metrics"
	"github.com/alghaibb/kick-back-sub002/internal/phone"
	"github.com/alghaibb/kick-back-sub002/internal/sender"
)

// MetricsSink records per-channel attempt metrics.
// All methods must be non-blocking and fire-and-forget.
type MetricsSink interface {
	ChannelAttempt(channel, statusClass string, duration time.Duration)
}

type Dispatcher struct {
	email sender.EmailSender
	sms   sender.SMSSender

	breaker       *circuitbreaker.CircuitBreaker // optional, nil = disabled
	metrics       MetricsSink                    // optional, nil = disabled
	defaultRegion string
}

func New(email sender.EmailSender, sms sender.SMSSender, defaultRegion string) *Dispatcher {
	return &Dispatcher{
		email:         email,
		sms:           sms,
		defaultRegion: defaultRegion,
	}
}

// WithBreaker attaches a per-channel circuit breaker.
func (d *Dispatcher) WithBreaker(cb *circuitbreaker.CircuitBreaker) *Dispatcher {
	d.breaker = cb
	return d
}

// WithMetrics attaches a metrics sink to the dispatcher.
func (d *Dispatcher) WithMetrics(sink MetricsSink) *Dispatcher {
	d.metrics = sink
	return d
}

// Dispatch sends the reminder over every channel the user asked for.
// Channels are attempted independently; the returned outcome is
// OutcomeSent when at least one requested channel succeeded, and
// OutcomeFailedChannel when every requested channel failed.
func (d *Dispatcher) Dispatch(ctx context.Context, cand domain.Candidate) domain.Outcome {
	outcome := domain.Outcome{
		EventID: cand.Event.ID,
		UserID:  cand.User.ID,
	}

	wantEmail := cand.User.ReminderType.WantsEmail()
	wantSMS := cand.User.ReminderType.WantsSMS()

	if !wantEmail && !wantSMS {
		// Unknown preference: treat like email so nobody silently loses
		// reminders when the settings collaborator writes a bad value.
		log.Printf("dispatcher: user=%s unknown reminder type %q, defaulting to email",
			cand.User.ID, cand.User.ReminderType)
		wantEmail = true
	}

	if wantEmail {
		if err := d.sendEmail(ctx, cand); err != nil {
			outcome.EmailErr = err.Error()
			log.Printf("dispatcher: user=%s event=%s email failed: %v",
				cand.User.ID, cand.Event.ID, err)
		} else {
			outcome.EmailSent = true
		}
	}

	if wantSMS {
		if err := d.sendSMS(ctx, cand); err != nil {
			outcome.SMSErr = err.Error()
			log.Printf("dispatcher: user=%s event=%s sms failed: %v",
				cand.User.ID, cand.Event.ID, err)
		} else {
			outcome.SMSSent = true
		}
	}

	if outcome.Sent() {
		outcome.Status = domain.OutcomeSent
	} else {
		outcome.Status = domain.OutcomeFailedChannel
	}
	return outcome
}

func (d *Dispatcher) sendEmail(ctx context.Context, cand domain.Candidate) error {
	start := time.Now()
	err := d.guarded(metrics.ChannelEmail, func() error {
		return d.email.Send(ctx, cand.User.Email, cand.Event)
	})
	d.record(metrics.ChannelEmail, err, time.Since(start))
	return err
}

func (d *Dispatcher) sendSMS(ctx context.Context, cand domain.Candidate) error {
	start := time.Now()

	// Normalization failures (including a missing number) are channel
	// failures for this attendee, not reasons to touch the breaker:
	// the provider was never called.
	to, err := phone.Normalize(cand.User.PhoneNumber, cand.User.Timezone, d.defaultRegion)
	if err != nil {
		d.record(metrics.ChannelSMS, err, time.Since(start))
		return err
	}

	err = d.guarded(metrics.ChannelSMS, func() error {
		return d.sms.Send(ctx, to, sender.Body(cand.Event))
	})
	d.record(metrics.ChannelSMS, err, time.Since(start))
	return err
}

// guarded wraps a provider call with the circuit breaker when one is set.
func (d *Dispatcher) guarded(channel string, send func() error) error {
	if d.breaker == nil {
		return send()
	}
	if err := d.breaker.Allow(channel); err != nil {
		return err
	}
	err := send()
	if err != nil {
		d.breaker.RecordFailure(channel)
	} else {
		d.breaker.RecordSuccess(channel)
	}
	return err
}

func (d *Dispatcher) record(channel string, err error, duration time.Duration) {
	if d.metrics == nil {
		return
	}
	d.metrics.ChannelAttempt(channel, metrics.ClassifyError(err), duration)
}
