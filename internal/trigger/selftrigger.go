// Package trigger provides the optional in-process trigger loop.
//
// The primary trigger is the external scheduler hitting the HTTP
// endpoint. Deployments without one can enable this loop instead: it
// fires the reminder batch on a cron cadence from inside the process.
// In multi-replica deployments the loop must run behind leader election
// or every replica fires its own batch (the idempotency marker still
// bounds duplicates, but concurrent invocations race for it).
package trigger

import (
	"context"
	"log"
	"time"

	"github.com/alghaibb/kick-back-sub002/internal/cron"
	"github.com/alghaibb/kick-back-sub002/internal/domain"
)

// Runner fires one reminder batch.
type Runner interface {
	Run(ctx context.Context) (domain.Summary, error)
}

// SelfTrigger fires the runner on a cron cadence.
type SelfTrigger struct {
	sched  cron.Schedule
	runner Runner
	clock  func() time.Time
}

// New parses the cron expression and returns a ready loop. An empty
// timezone evaluates the expression in UTC.
func New(expression, timezone string, runner Runner) (*SelfTrigger, error) {
	sched, err := cron.NewParser().Parse(expression, timezone)
	if err != nil {
		return nil, err
	}
	return &SelfTrigger{
		sched:  sched,
		runner: runner,
		clock:  time.Now,
	}, nil
}

// Run blocks until ctx is cancelled, firing the runner at each scheduled
// instant. A run overlapping the next instant delays it: batches never
// run concurrently from this loop.
func (s *SelfTrigger) Run(ctx context.Context) {
	log.Println("trigger: self-trigger loop started")

	for {
		now := s.clock()
		next := s.sched.Next(now)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("trigger: self-trigger loop stopped")
			return
		case <-timer.C:
		}

		summary, err := s.runner.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("trigger: self-trigger loop stopped")
				return
			}
			log.Printf("trigger: run failed: %v", err)
			continue
		}
		log.Printf("trigger: fired at %s, candidates=%d",
			next.Format(time.RFC3339), summary.Candidates)
	}
}
