package metrics

import (
	"strings"
	"time"
)

// Sink defines the interface for recording reminder-engine metrics.
// All methods are fire-and-forget: implementations MUST NOT block or
// propagate errors. If the metrics backend is unavailable, implementations
// log warnings and continue.
type Sink interface {
	// Runner metrics
	RunStarted()
	RunCompleted(duration time.Duration, candidates int, err error)
	CandidateOutcome(status string)
	CandidatesInFlightIncr()
	CandidatesInFlightDecr()

	// Dispatcher metrics
	ChannelAttempt(channel, statusClass string, duration time.Duration)

	// Trigger endpoint metrics
	TriggerDecision(authorized bool)

	// Candidate bus metrics
	BufferSizeUpdate(size int)
}

// Channel label values.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// StatusClass constants for ChannelAttempt.
const (
	StatusClassOK              = "ok"
	StatusClassTimeout         = "timeout"
	StatusClassConnectionError = "connection_error"
	StatusClassCircuitOpen     = "circuit_open"
	StatusClassInvalidNumber   = "invalid_number"
	StatusClassProviderError   = "provider_error"
)

// ClassifyError maps a channel send error to a bounded status class.
func ClassifyError(err error) string {
	if err == nil {
		return StatusClassOK
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return StatusClassTimeout
	case strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "dial"):
		return StatusClassConnectionError
	case strings.Contains(msg, "circuit breaker"):
		return StatusClassCircuitOpen
	case strings.Contains(msg, "phone number") || strings.Contains(msg, "not a valid"):
		return StatusClassInvalidNumber
	default:
		return StatusClassProviderError
	}
}
