// Package pruner keeps the reminder_log table bounded.
//
// The log is an audit trail, not an operational dependency: idempotency
// lives on the attendee row, so old log entries can be deleted freely.
// The pruner periodically deletes entries older than the retention
// period, in batches so a large backlog never holds long row locks.
package pruner

import (
	"context"
	"log"
	"time"
)

// Store defines the interface for deleting aged reminder log entries.
type Store interface {
	PruneReminderLog(ctx context.Context, olderThan time.Time, maxRows int) (int64, error)
}

// Config holds pruner configuration.
type Config struct {
	// Interval is how often the pruner runs.
	// Default: 1 hour.
	Interval time.Duration

	// Retention is how long reminder log entries are kept.
	// Default: 90 days.
	Retention time.Duration

	// BatchSize is the maximum number of rows deleted per cycle.
	// Default: 1000.
	BatchSize int
}

// DefaultConfig returns the default pruner configuration.
func DefaultConfig() Config {
	return Config{
		Interval:  time.Hour,
		Retention: 90 * 24 * time.Hour,
		BatchSize: 1000,
	}
}

// Pruner deletes aged reminder log entries.
type Pruner struct {
	config Config
	store  Store
	clock  func() time.Time
}

// New creates a new Pruner.
func New(config Config, store Store) *Pruner {
	return &Pruner{
		config: config,
		store:  store,
		clock:  time.Now,
	}
}

// Run starts the pruning loop. It blocks until ctx is cancelled.
func (p *Pruner) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	log.Printf("pruner: started (interval=%s, retention=%s, batch=%d)",
		p.config.Interval, p.config.Retention, p.config.BatchSize)

	// Run immediately on startup, then on ticker
	p.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("pruner: stopped")
			return
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

// runCycle executes one pruning cycle.
func (p *Pruner) runCycle(ctx context.Context) {
	cutoff := p.clock().UTC().Add(-p.config.Retention)

	deleted, err := p.store.PruneReminderLog(ctx, cutoff, p.config.BatchSize)
	if err != nil {
		// DB error: log and abort cycle. Will retry next interval.
		log.Printf("pruner: failed to prune reminder log: %v", err)
		return
	}

	if deleted == 0 {
		// Nothing to do. Silent success.
		return
	}

	log.Printf("pruner: deleted %d reminder log entries older than %s",
		deleted, cutoff.Format(time.RFC3339))
}
