// Package channel provides the buffered in-memory bus that feeds reminder
// candidates from the selector to the dispatch workers.
package channel

import (
	"context"

	"github.com/alghaibb/kick-back-sub002/internal/domain"
)

// MetricsSink records bus saturation. Implementations must not block.
type MetricsSink interface {
	BufferSizeUpdate(size int)
}

type Option func(*CandidateBus)

func WithMetrics(sink MetricsSink) Option {
	return func(b *CandidateBus) { b.metrics = sink }
}

type CandidateBus struct {
	ch      chan domain.Candidate
	metrics MetricsSink
}

func NewCandidateBus(buffer int, opts ...Option) *CandidateBus {
	b := &CandidateBus{
		ch: make(chan domain.Candidate, buffer),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Emit enqueues a candidate, blocking until there is buffer space or the
// context is cancelled.
func (b *CandidateBus) Emit(ctx context.Context, cand domain.Candidate) error {
	select {
	case b.ch <- cand:
		if b.metrics != nil {
			b.metrics.BufferSizeUpdate(len(b.ch))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals workers that no more candidates are coming.
func (b *CandidateBus) Close() {
	close(b.ch)
}

func (b *CandidateBus) Channel() <-chan domain.Candidate {
	return b.ch
}
