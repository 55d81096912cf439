package pruner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mockStore struct {
	mu        sync.Mutex
	err       error
	deleted   int64
	calls     int
	olderThan time.Time
	maxRows   int
}

func (s *mockStore) PruneReminderLog(ctx context.Context, olderThan time.Time, maxRows int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.olderThan = olderThan
	s.maxRows = maxRows
	if s.err != nil {
		return 0, s.err
	}
	return s.deleted, nil
}

func (s *mockStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestPruner_CutoffFromRetention(t *testing.T) {
	store := &mockStore{deleted: 42}
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	p := New(Config{
		Interval:  time.Hour,
		Retention: 90 * 24 * time.Hour,
		BatchSize: 500,
	}, store)
	p.clock = func() time.Time { return now }

	p.runCycle(context.Background())

	want := now.Add(-90 * 24 * time.Hour)
	if !store.olderThan.Equal(want) {
		t.Errorf("cutoff = %v, want %v", store.olderThan, want)
	}
	if store.maxRows != 500 {
		t.Errorf("maxRows = %d, want 500", store.maxRows)
	}
}

func TestPruner_DBErrorAbortsGracefully(t *testing.T) {
	store := &mockStore{err: errors.New("database connection failed")}

	p := New(DefaultConfig(), store)

	// Should not panic.
	p.runCycle(context.Background())

	if store.callCount() != 1 {
		t.Errorf("store called %d times, want 1", store.callCount())
	}
}

func TestPruner_RunLoopTicksAndStops(t *testing.T) {
	store := &mockStore{}

	p := New(Config{
		Interval:  20 * time.Millisecond,
		Retention: time.Hour,
		BatchSize: 100,
	}, store)

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	// Immediate cycle plus at least one tick.
	if store.callCount() < 2 {
		t.Errorf("store called %d times, want at least 2", store.callCount())
	}
}

func TestPruner_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Interval != time.Hour {
		t.Errorf("default interval should be 1h, got %s", cfg.Interval)
	}
	if cfg.Retention != 90*24*time.Hour {
		t.Errorf("default retention should be 90d, got %s", cfg.Retention)
	}
	if cfg.BatchSize != 1000 {
		t.Errorf("default batch size should be 1000, got %d", cfg.BatchSize)
	}
}
