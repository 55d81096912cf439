// Package analytics records daily reminder outcome counters in Redis.
// Counters feed product dashboards; they are strictly best effort and
// never influence dispatch behavior.
package analytics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alghaibb/kick-back-sub002/internal/domain"
)

type RedisSink struct {
	client    *redis.Client
	retention time.Duration
	clock     func() time.Time
}

func NewRedisSink(client *redis.Client, retention time.Duration) *RedisSink {
	return &RedisSink{
		client:    client,
		retention: retention,
		clock:     time.Now,
	}
}

// Record increments the day's counters for one outcome. Errors are logged
// and swallowed: a Redis outage must not touch the dispatch path.
func (s *RedisSink) Record(ctx context.Context, outcome domain.Outcome) {
	day := s.clock().UTC().Format("20060102")

	keys := []string{
		buildKey(day, string(outcome.Status)),
	}
	if outcome.EmailSent {
		keys = append(keys, buildKey(day, "channel:email"))
	}
	if outcome.SMSSent {
		keys = append(keys, buildKey(day, "channel:sms"))
	}

	pipe := s.client.Pipeline()
	for _, key := range keys {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, s.retention)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("analytics: redis pipeline failed: %v", err)
	}
}

func buildKey(day, suffix string) string {
	return fmt.Sprintf("reminders:%s:%s", day, suffix)
}
