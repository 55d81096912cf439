// Package localtime holds the pure wall-clock arithmetic the reminder
// engine depends on: resolving IANA zones, local calendar-day boundaries,
// the "event is tomorrow" predicate, and the reminder window evaluator.
//
// Everything here is DST-aware because it works on local calendar-day
// boundaries via time.Date normalization instead of fixed 24h offsets.
package localtime

import (
	"fmt"
	"time"
)

// LoadZone resolves an IANA zone name. An empty or unknown name falls back
// to UTC — a single bad timezone must not block reminders for other users,
// so callers get a usable location either way. The second return reports
// whether the fallback was taken.
func LoadZone(name string) (*time.Location, bool) {
	if name == "" {
		return time.UTC, false
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, true
	}
	return loc, false
}

// StartOfDay returns local midnight of the calendar day containing t,
// in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsTomorrow reports whether eventAt falls within the local calendar day
// immediately following now's local calendar day, both evaluated in loc.
// Boundaries are inclusive: an event exactly at tomorrow's midnight, or at
// the last instant before the day after, qualifies. Day arithmetic uses
// calendar normalization, so 23- and 25-hour DST days are handled.
func IsTomorrow(eventAt time.Time, loc *time.Location, now time.Time) bool {
	local := now.In(loc)
	y, m, d := local.Date()

	tomorrowStart := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	dayAfterStart := time.Date(y, m, d+2, 0, 0, 0, 0, loc)

	ev := eventAt.In(loc)
	return !ev.Before(tomorrowStart) && ev.Before(dayAfterStart)
}

// ParseClock parses a "HH:mm" wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("parse reminder time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// Window is the tolerance band around a configured reminder time-of-day.
// Early covers trigger jitter that lands just before the target minute,
// After covers the trigger cadence itself: with a ~1/min trigger, After
// must be at least one minute or the target minute can be skipped.
type Window struct {
	Early time.Duration
	After time.Duration
}

// DefaultWindow comfortably straddles a once-per-minute trigger cadence.
func DefaultWindow() Window {
	return Window{Early: 30 * time.Second, After: 2 * time.Minute}
}

// Contains reports whether nowLocal falls inside the band around today's
// hour:minute, evaluated in nowLocal's location. Deliberately not an exact
// comparison: the trigger cadence and our invocation instant are not
// aligned to the second.
func (w Window) Contains(nowLocal time.Time, hour, minute int) bool {
	y, m, d := nowLocal.Date()
	target := time.Date(y, m, d, hour, minute, 0, 0, nowLocal.Location())

	diff := nowLocal.Sub(target)
	return diff >= -w.Early && diff <= w.After
}

// SentOnOrAfterLocalToday reports whether the idempotency marker already
// falls on the current local calendar day (or, defensively, later).
// A nil marker means the reminder has never been sent.
func SentOnOrAfterLocalToday(lastSent *time.Time, loc *time.Location, now time.Time) bool {
	if lastSent == nil {
		return false
	}
	todayStart := StartOfDay(now.In(loc))
	return !lastSent.In(loc).Before(todayStart)
}
