// Package runner is the reminder engine's entry point: one Run per
// external trigger. It selects candidates in a coarse UTC band, evaluates
// each against the attendee's local tomorrow and reminder window, guards
// with the per-attendee idempotency marker, dispatches, and aggregates a
// summary. Per-candidate work is isolated: no candidate's failure can
// abort a sibling.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alghaibb/kick-back-sub002/internal/domain"
	"github.com/alghaibb/kick-back-sub002/internal/localtime"
	"github.com/alghaibb/kick-back-sub002/internal/transport/channel"
)

// ErrAlreadyMarked is returned by Store.MarkReminderSent when the
// conditional write finds the marker already set for the attendee's
// current local day (a lost check-then-act race).
var ErrAlreadyMarked = errors.New("reminder already marked for today")

// lookaheadDays bounds the candidate selection band: UTC start-of-today
// through three calendar days out. Local "tomorrow" for a UTC-12 user can
// end as late as start-of-today +2d +12h in UTC, so two days is not enough
// at the far edge; three covers every offset in [-12, +14].
const lookaheadDays = 3

type Store interface {
	// SelectCandidates returns (event, attendee, prefs) tuples for events
	// whose UTC instant falls within [from, to). Read-only.
	SelectCandidates(ctx context.Context, from, to time.Time) ([]domain.Candidate, error)

	// MarkReminderSent sets last_reminder_sent = sentAt for the attendee
	// row, but only when the stored marker is NULL or before cutoff.
	// Returns ErrAlreadyMarked when the guard rejects the write.
	MarkReminderSent(ctx context.Context, eventID, userID uuid.UUID, sentAt, cutoff time.Time) error

	// InsertReminderLog records one per-channel dispatch outcome.
	InsertReminderLog(ctx context.Context, entry domain.ReminderLog) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, cand domain.Candidate) domain.Outcome
}

// AnalyticsSink records outcomes as a best-effort side effect.
// Implementations handle their own errors; analytics never affects
// dispatch correctness.
type AnalyticsSink interface {
	Record(ctx context.Context, outcome domain.Outcome)
}

// MetricsSink defines the interface for recording runner metrics.
// All methods must be non-blocking and fire-and-forget.
type MetricsSink interface {
	RunStarted()
	RunCompleted(duration time.Duration, candidates int, err error)
	CandidateOutcome(status string)
	CandidatesInFlightIncr()
	CandidatesInFlightDecr()
	BufferSizeUpdate(size int)
}

type Config struct {
	// Window is the tolerance band around each user's reminder time.
	Window localtime.Window

	// Workers bounds concurrent candidate evaluation; sized to respect
	// provider rate limits, not throughput.
	Workers int

	// RunDeadline bounds the whole invocation. Candidates not processed
	// by then are left for the next trigger; nothing is marked for them.
	RunDeadline time.Duration

	// BufferSize is the candidate bus buffer.
	BufferSize int
}

type Runner struct {
	config     Config
	store      Store
	dispatcher Dispatcher
	analytics  AnalyticsSink // optional, nil = disabled
	metrics    MetricsSink   // optional, nil = disabled
	clock      func() time.Time
}

func New(config Config, store Store, dispatcher Dispatcher) *Runner {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 100
	}
	if config.Window == (localtime.Window{}) {
		config.Window = localtime.DefaultWindow()
	}
	return &Runner{
		config:     config,
		store:      store,
		dispatcher: dispatcher,
		clock:      time.Now,
	}
}

func (r *Runner) WithAnalytics(sink AnalyticsSink) *Runner {
	r.analytics = sink
	return r
}

// WithMetrics attaches a metrics sink to the runner.
func (r *Runner) WithMetrics(sink MetricsSink) *Runner {
	r.metrics = sink
	return r
}

// Run executes one reminder batch. The only fatal error is a selection
// failure; per-candidate problems are folded into the summary.
func (r *Runner) Run(ctx context.Context) (domain.Summary, error) {
	start := r.clock().UTC()

	if r.metrics != nil {
		r.metrics.RunStarted()
	}

	if r.config.RunDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.RunDeadline)
		defer cancel()
	}

	from := localtime.StartOfDay(start)
	to := from.AddDate(0, 0, lookaheadDays)

	candidates, err := r.store.SelectCandidates(ctx, from, to)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RunCompleted(time.Since(start), 0, err)
		}
		// Nothing has been marked yet, so the next trigger retries safely.
		return domain.Summary{StartedAt: start, FinishedAt: r.clock().UTC()},
			fmt.Errorf("select candidates: %w", err)
	}

	summary := domain.Summary{
		Candidates: len(candidates),
		StartedAt:  start,
	}

	var busOpts []channel.Option
	if r.metrics != nil {
		busOpts = append(busOpts, channel.WithMetrics(r.metrics))
	}
	bus := channel.NewCandidateBus(r.config.BufferSize, busOpts...)

	// Buffered to len(candidates) so workers never block on the result side.
	results := make(chan domain.Outcome, len(candidates))

	var wg sync.WaitGroup
	for i := 0; i < r.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cand := range bus.Channel() {
				results <- r.evaluate(ctx, cand, start)
			}
		}()
	}

	for _, cand := range candidates {
		if err := bus.Emit(ctx, cand); err != nil {
			// Deadline hit mid-feed: remaining candidates are left for the
			// next trigger. Safe, since nothing was marked for them.
			log.Printf("runner: feed interrupted, leaving remaining candidates: %v", err)
			break
		}
	}
	bus.Close()
	wg.Wait()
	close(results)

	for outcome := range results {
		summary.Add(outcome)
		if r.metrics != nil {
			r.metrics.CandidateOutcome(string(outcome.Status))
		}
		if r.analytics != nil {
			r.analytics.Record(ctx, outcome)
		}
	}

	summary.FinishedAt = r.clock().UTC()
	if r.metrics != nil {
		r.metrics.RunCompleted(summary.FinishedAt.Sub(start), len(candidates), nil)
	}

	log.Printf("runner: run complete candidates=%d email_sent=%d sms_sent=%d skipped=%d failed=%d duration=%s",
		summary.Candidates, summary.SentEmail, summary.SentSMS,
		summary.SkippedWindow+summary.SkippedAlreadySent+summary.SkippedNotTomorrow,
		summary.FailedEmail+summary.FailedSMS+summary.FailedEvaluation,
		summary.FinishedAt.Sub(start).Round(time.Millisecond))

	return summary, nil
}

// evaluate runs one candidate through the strict per-candidate sequence:
// tomorrow check, window check, idempotency check, dispatch, mark.
func (r *Runner) evaluate(ctx context.Context, cand domain.Candidate, now time.Time) domain.Outcome {
	if r.metrics != nil {
		r.metrics.CandidatesInFlightIncr()
		defer r.metrics.CandidatesInFlightDecr()
	}

	outcome := domain.Outcome{
		EventID: cand.Event.ID,
		UserID:  cand.User.ID,
	}

	loc, fallback := localtime.LoadZone(cand.User.Timezone)
	if fallback {
		// A bad zone must not block this user's reminders, let alone the batch.
		log.Printf("runner: user=%s unknown timezone %q, using UTC",
			cand.User.ID, cand.User.Timezone)
	}

	hour, minute, err := localtime.ParseClock(cand.User.ReminderTime)
	if err != nil {
		log.Printf("runner: user=%s bad reminder time: %v", cand.User.ID, err)
		outcome.Status = domain.OutcomeFailedEvaluation
		return outcome
	}

	if !localtime.IsTomorrow(cand.Event.Date, loc, now) {
		outcome.Status = domain.OutcomeSkippedTomorrow
		return outcome
	}

	if !r.config.Window.Contains(now.In(loc), hour, minute) {
		outcome.Status = domain.OutcomeSkippedWindow
		return outcome
	}

	if localtime.SentOnOrAfterLocalToday(cand.Attendee.LastReminderSent, loc, now) {
		outcome.Status = domain.OutcomeSkippedSent
		return outcome
	}

	outcome = r.dispatcher.Dispatch(ctx, cand)

	if outcome.Sent() {
		r.mark(ctx, cand, loc, now)
	}

	r.logOutcome(ctx, cand, outcome, now)
	return outcome
}

// mark writes the idempotency marker immediately after a confirmed send.
// Both failure modes here are tolerated by design: a lost conditional
// write means another invocation already sent today, and a plain write
// failure means a duplicate may recur on the next trigger.
func (r *Runner) mark(ctx context.Context, cand domain.Candidate, loc *time.Location, now time.Time) {
	cutoff := localtime.StartOfDay(now.In(loc))

	err := r.store.MarkReminderSent(ctx, cand.Event.ID, cand.User.ID, now, cutoff)
	switch {
	case errors.Is(err, ErrAlreadyMarked):
		log.Printf("runner: user=%s event=%s marker already set for today (duplicate send risk realized)",
			cand.User.ID, cand.Event.ID)
	case err != nil:
		log.Printf("runner: user=%s event=%s idempotency write failed (duplicate possible next trigger): %v",
			cand.User.ID, cand.Event.ID, err)
	}
}

// logOutcome persists per-channel reminder_log rows, best effort.
func (r *Runner) logOutcome(ctx context.Context, cand domain.Candidate, outcome domain.Outcome, now time.Time) {
	entries := make([]domain.ReminderLog, 0, 2)

	if outcome.EmailSent || outcome.EmailErr != "" {
		entries = append(entries, domain.ReminderLog{
			ID:      uuid.New(),
			EventID: cand.Event.ID,
			UserID:  cand.User.ID,
			Channel: "email",
			Status:  logStatus(outcome.EmailSent),
			Error:   outcome.EmailErr,
			SentAt:  now,
		})
	}
	if outcome.SMSSent || outcome.SMSErr != "" {
		entries = append(entries, domain.ReminderLog{
			ID:      uuid.New(),
			EventID: cand.Event.ID,
			UserID:  cand.User.ID,
			Channel: "sms",
			Status:  logStatus(outcome.SMSSent),
			Error:   outcome.SMSErr,
			SentAt:  now,
		})
	}

	for _, entry := range entries {
		if err := r.store.InsertReminderLog(ctx, entry); err != nil {
			log.Printf("runner: failed to record reminder log: %v", err)
		}
	}
}

func logStatus(sent bool) string {
	if sent {
		return "sent"
	}
	return "failed"
}
