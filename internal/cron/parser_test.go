package cron

import (
	"testing"
	"time"
)

func TestParser_ValidExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"every minute", "* * * * *"},
		{"every 5 minutes", "*/5 * * * *"},
		{"daily 7am", "0 7 * * *"},
		{"business hours", "0 9-17 * * 1-5"},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, err := p.Parse(tt.expr, "UTC")
			if err != nil {
				t.Errorf("Parse(%q, UTC) returned error: %v", tt.expr, err)
			}
			if sched == nil {
				t.Errorf("Parse(%q, UTC) returned nil schedule", tt.expr)
			}
		})
	}
}

func TestParser_InvalidExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"four fields", "* * * *"},
		{"six fields", "* * * * * *"},
		{"invalid minute 60", "60 * * * *"},
		{"non-numeric", "abc * * * *"},
		{"empty", ""},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Parse(tt.expr, "UTC"); err == nil {
				t.Errorf("Parse(%q, UTC) should return error", tt.expr)
			}
		})
	}
}

func TestParser_EmptyTimezoneDefaultsToUTC(t *testing.T) {
	p := NewParser()

	sched, err := p.Parse("0 10 * * *", "")
	if err != nil {
		t.Fatalf("Parse with empty timezone failed: %v", err)
	}

	after := time.Date(2025, 7, 15, 9, 0, 0, 0, time.UTC)
	next := sched.Next(after)
	want := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Next(%v) = %v, want %v", after, next, want)
	}
}

func TestParser_InvalidTimezone(t *testing.T) {
	p := NewParser()
	if _, err := p.Parse("* * * * *", "Invalid/Zone"); err == nil {
		t.Error("Parse with unknown timezone should return error")
	}
}

func TestParser_NextCalculation(t *testing.T) {
	p := NewParser()

	sched, err := p.Parse("* * * * *", "UTC")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// A once-per-minute schedule must always fire within the next minute,
	// or the reminder window check would miss target minutes entirely.
	after := time.Date(2025, 7, 15, 9, 0, 10, 0, time.UTC)
	next := sched.Next(after)
	if next.Sub(after) > time.Minute {
		t.Errorf("Next(%v) = %v, gap %s exceeds one minute", after, next, next.Sub(after))
	}
}
