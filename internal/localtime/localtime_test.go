package localtime

import (
	"testing"
	"time"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load zone %s: %v", name, err)
	}
	return loc
}

func TestLoadZone(t *testing.T) {
	tests := []struct {
		name         string
		zone         string
		wantFallback bool
	}{
		{"valid", "Australia/Sydney", false},
		{"empty defaults to utc", "", false},
		{"garbage falls back to utc", "Mars/Olympus_Mons", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, fallback := LoadZone(tt.zone)
			if loc == nil {
				t.Fatal("LoadZone returned nil location")
			}
			if fallback != tt.wantFallback {
				t.Errorf("fallback = %v, want %v", fallback, tt.wantFallback)
			}
			if tt.wantFallback && loc != time.UTC {
				t.Errorf("fallback location = %v, want UTC", loc)
			}
		})
	}
}

func TestIsTomorrow_Sydney(t *testing.T) {
	syd := mustZone(t, "Australia/Sydney")

	// 2025-07-15T23:00:00Z is July 16, 09:00 in Sydney (UTC+10, no DST in July).
	eventAt := time.Date(2025, 7, 15, 23, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		// 2025-07-14T23:00:00Z = July 15, 09:00 Sydney: event is tomorrow.
		{"day before local", time.Date(2025, 7, 14, 23, 0, 0, 0, time.UTC), true},
		// Same UTC day as the event but already July 16 in Sydney: not tomorrow.
		{"event day local", time.Date(2025, 7, 15, 23, 30, 0, 0, time.UTC), false},
		// Two days ahead locally: not tomorrow yet.
		{"two days before", time.Date(2025, 7, 13, 23, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTomorrow(eventAt, syd, tt.now); got != tt.want {
				t.Errorf("IsTomorrow = %v, want %v", got, tt.want)
			}
		})
	}
}

// The classification must depend solely on the user's own zone: the same UTC
// instant can be tomorrow for one user and not for another 26 hours apart.
func TestIsTomorrow_ZoneIndependence(t *testing.T) {
	kiritimati := mustZone(t, "Pacific/Kiritimati") // UTC+14
	westUTC := mustZone(t, "Etc/GMT+12")            // UTC-12

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	// Local now: Mar 11, 02:00 (+14) / Mar 10, 00:00 (-12).
	eventAt := time.Date(2025, 3, 11, 22, 0, 0, 0, time.UTC)
	// Local event: Mar 12, 12:00 (+14) / Mar 11, 10:00 (-12).

	if !IsTomorrow(eventAt, kiritimati, now) {
		t.Error("UTC+14: event should be tomorrow")
	}
	if !IsTomorrow(eventAt, westUTC, now) {
		t.Error("UTC-12: event should be tomorrow")
	}

	later := time.Date(2025, 3, 12, 2, 0, 0, 0, time.UTC)
	// Local now: Mar 12, 16:00 (+14) -> the event is already today there,
	// while at UTC-12 it is Mar 11, 14:00 and the event is still today too.
	if IsTomorrow(eventAt, kiritimati, later) {
		t.Error("UTC+14: event is today, not tomorrow")
	}
	if IsTomorrow(eventAt, westUTC, later) {
		t.Error("UTC-12: event is today, not tomorrow")
	}
}

func TestIsTomorrow_MidnightBoundaries(t *testing.T) {
	syd := mustZone(t, "Australia/Sydney")
	now := time.Date(2025, 7, 15, 9, 0, 0, 0, syd)

	atMidnight := time.Date(2025, 7, 16, 0, 0, 0, 0, syd)
	if !IsTomorrow(atMidnight, syd, now) {
		t.Error("event exactly at tomorrow's midnight should qualify")
	}

	lastInstant := time.Date(2025, 7, 16, 23, 59, 59, 0, syd)
	if !IsTomorrow(lastInstant, syd, now) {
		t.Error("event at the last second of tomorrow should qualify")
	}

	dayAfter := time.Date(2025, 7, 17, 0, 0, 0, 0, syd)
	if IsTomorrow(dayAfter, syd, now) {
		t.Error("event at the day-after midnight should not qualify")
	}
}

// A US spring-forward day is 23 hours long; calendar-day boundaries must
// still classify it correctly.
func TestIsTomorrow_DSTTransition(t *testing.T) {
	ny := mustZone(t, "America/New_York")

	// 2025-03-09 is the spring-forward day in America/New_York.
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, ny)

	morning := time.Date(2025, 3, 9, 8, 0, 0, 0, ny)
	if !IsTomorrow(morning, ny, now) {
		t.Error("morning of DST day should be tomorrow")
	}

	// 23:30 local on the transition day is only 22.5 real hours after local
	// midnight; fixed 24h arithmetic would misclassify the far edge.
	lateEvening := time.Date(2025, 3, 9, 23, 30, 0, 0, ny)
	if !IsTomorrow(lateEvening, ny, now) {
		t.Error("late evening of DST day should be tomorrow")
	}

	nextMorning := time.Date(2025, 3, 10, 0, 30, 0, 0, ny)
	if IsTomorrow(nextMorning, ny, now) {
		t.Error("day after DST day should not be tomorrow")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"09:00", 9, 0, false},
		{"23:59", 23, 59, false},
		{"00:00", 0, 0, false},
		{"9am", 0, 0, true},
		{"25:00", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err == nil && (h != tt.hour || m != tt.minute) {
				t.Errorf("got %02d:%02d, want %02d:%02d", h, m, tt.hour, tt.minute)
			}
		})
	}
}

func TestWindow_Contains(t *testing.T) {
	syd := mustZone(t, "Australia/Sydney")
	w := DefaultWindow() // 30s early, 2m after

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exact minute", time.Date(2025, 7, 15, 9, 0, 0, 0, syd), true},
		{"within after band", time.Date(2025, 7, 15, 9, 1, 30, 0, syd), true},
		{"at after edge", time.Date(2025, 7, 15, 9, 2, 0, 0, syd), true},
		{"jitter before", time.Date(2025, 7, 15, 8, 59, 45, 0, syd), true},
		{"too early", time.Date(2025, 7, 15, 8, 57, 0, 0, syd), false},
		{"too late", time.Date(2025, 7, 15, 9, 3, 0, 0, syd), false},
		{"wrong hour", time.Date(2025, 7, 15, 14, 0, 0, 0, syd), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.now, 9, 0); got != tt.want {
				t.Errorf("Contains = %v, want %v", got, tt.want)
			}
		})
	}
}

// With a ~1/min trigger cadence and an After band of 2m, at least one tick
// lands inside the window regardless of phase.
func TestWindow_CadenceNeverSkips(t *testing.T) {
	w := DefaultWindow()
	loc := time.UTC

	for offsetSec := 0; offsetSec < 60; offsetSec += 7 {
		tick := time.Date(2025, 7, 15, 8, 58, offsetSec, 0, loc)
		hit := false
		for i := 0; i < 6; i++ {
			if w.Contains(tick, 9, 0) {
				hit = true
				break
			}
			tick = tick.Add(time.Minute)
		}
		if !hit {
			t.Errorf("cadence phase %ds never hit the 09:00 window", offsetSec)
		}
	}
}

func TestSentOnOrAfterLocalToday(t *testing.T) {
	syd := mustZone(t, "Australia/Sydney")
	now := time.Date(2025, 7, 15, 9, 1, 0, 0, syd)

	earlierToday := time.Date(2025, 7, 15, 9, 0, 0, 0, syd)
	yesterday := time.Date(2025, 7, 14, 9, 0, 0, 0, syd)
	// Sent late "yesterday" in UTC terms but already today in Sydney.
	utcYesterdayLocalToday := time.Date(2025, 7, 14, 23, 30, 0, 0, time.UTC)

	if SentOnOrAfterLocalToday(nil, syd, now) {
		t.Error("nil marker must never block")
	}
	if !SentOnOrAfterLocalToday(&earlierToday, syd, now) {
		t.Error("marker from earlier today must block")
	}
	if SentOnOrAfterLocalToday(&yesterday, syd, now) {
		t.Error("marker from yesterday must not block")
	}
	if !SentOnOrAfterLocalToday(&utcYesterdayLocalToday, syd, now) {
		t.Error("marker on today's local date must block regardless of UTC date")
	}
}

func TestStartOfDay(t *testing.T) {
	syd := mustZone(t, "Australia/Sydney")
	ts := time.Date(2025, 7, 15, 17, 42, 11, 500, syd)

	got := StartOfDay(ts)
	want := time.Date(2025, 7, 15, 0, 0, 0, 0, syd)
	if !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
	if got.Location() != syd {
		t.Errorf("StartOfDay location = %v, want %v", got.Location(), syd)
	}
}
