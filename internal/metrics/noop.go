package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) RunStarted()                                                  {}
func (n *NoopSink) RunCompleted(duration time.Duration, candidates int, err error) {}
func (n *NoopSink) CandidateOutcome(status string)                               {}
func (n *NoopSink) CandidatesInFlightIncr()                                      {}
func (n *NoopSink) CandidatesInFlightDecr()                                      {}
func (n *NoopSink) ChannelAttempt(channel, statusClass string, d time.Duration)  {}
func (n *NoopSink) TriggerDecision(authorized bool)                              {}
func (n *NoopSink) BufferSizeUpdate(size int)                                    {}
