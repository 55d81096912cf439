package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alghaibb/kick-back-sub002/internal/domain"
)

func TestCandidateBus_EmitAndReceive(t *testing.T) {
	bus := NewCandidateBus(2)

	cand := domain.Candidate{User: domain.User{ID: uuid.New()}}
	if err := bus.Emit(context.Background(), cand); err != nil {
		t.Fatalf("emit: %v", err)
	}
	bus.Close()

	got, ok := <-bus.Channel()
	if !ok {
		t.Fatal("channel closed before delivering the candidate")
	}
	if got.User.ID != cand.User.ID {
		t.Errorf("got candidate for user %s, want %s", got.User.ID, cand.User.ID)
	}

	if _, ok := <-bus.Channel(); ok {
		t.Error("channel should be closed after Close")
	}
}

func TestCandidateBus_EmitRespectsCancel(t *testing.T) {
	bus := NewCandidateBus(1)
	if err := bus.Emit(context.Background(), domain.Candidate{}); err != nil {
		t.Fatalf("emit into free buffer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Buffer is full and nobody is draining: Emit must give up with the context.
	if err := bus.Emit(ctx, domain.Candidate{}); err == nil {
		t.Fatal("expected context error when the buffer is full")
	}
}

type recordingSink struct {
	mu    sync.Mutex
	sizes []int
}

func (r *recordingSink) BufferSizeUpdate(size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sizes = append(r.sizes, size)
}

func TestCandidateBus_MetricsSink(t *testing.T) {
	sink := &recordingSink{}
	bus := NewCandidateBus(4, WithMetrics(sink))

	for i := 0; i < 3; i++ {
		if err := bus.Emit(context.Background(), domain.Candidate{}); err != nil {
			t.Fatalf("emit %d: %v", i, err)
		}
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.sizes) != 3 {
		t.Fatalf("recorded %d size updates, want 3", len(sink.sizes))
	}
}
