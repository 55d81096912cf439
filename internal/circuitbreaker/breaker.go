// Package circuitbreaker guards the delivery providers. When a channel
// (email or sms) fails enough times in a row, further sends on that channel
// fail fast for a cooldown instead of hammering a provider that is down.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

type channelState struct {
	state               state
	consecutiveFailures int
	openedAt            time.Time
}

type CircuitBreaker struct {
	mu        sync.Mutex
	states    map[string]*channelState
	threshold int
	cooldown  time.Duration
	clock     func() time.Time
}

func New(threshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		states:    make(map[string]*channelState),
		threshold: threshold,
		cooldown:  cooldown,
		clock:     time.Now,
	}
}

// Allow reports whether a send on the named channel may proceed.
// After the cooldown one probe is let through (half-open); its result
// decides whether the channel closes again.
func (cb *CircuitBreaker) Allow(channel string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s, ok := cb.states[channel]
	if !ok {
		return nil
	}

	switch s.state {
	case stateClosed:
		return nil
	case stateOpen:
		if cb.clock().Sub(s.openedAt) >= cb.cooldown {
			s.state = stateHalfOpen
			return nil
		}
		return ErrCircuitOpen
	case stateHalfOpen:
		return ErrCircuitOpen
	default:
		return nil
	}
}

func (cb *CircuitBreaker) RecordSuccess(channel string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s, ok := cb.states[channel]
	if !ok {
		return
	}
	s.state = stateClosed
	s.consecutiveFailures = 0
}

func (cb *CircuitBreaker) RecordFailure(channel string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s, ok := cb.states[channel]
	if !ok {
		s = &channelState{}
		cb.states[channel] = s
	}

	s.consecutiveFailures++
	if s.consecutiveFailures >= cb.threshold {
		s.state = stateOpen
		s.openedAt = cb.clock()
	}
}
