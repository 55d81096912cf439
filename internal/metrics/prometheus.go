package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// All methods are non-blocking and fire-and-forget.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	// Runner metrics
	runsTotal           prometheus.Counter
	runErrorsTotal      prometheus.Counter
	runDuration         prometheus.Histogram
	candidatesTotal     prometheus.Counter
	outcomesTotal       *prometheus.CounterVec
	candidatesInFlight  prometheus.Gauge

	// Dispatcher metrics
	channelAttemptsTotal *prometheus.CounterVec
	channelDuration      *prometheus.HistogramVec

	// Trigger endpoint metrics
	triggerDecisionsTotal *prometheus.CounterVec

	// Candidate bus metrics
	bufferSize prometheus.Gauge
}

// NewPrometheusSink creates a new Prometheus metrics sink.
// If registration fails, it logs a warning and returns a functional sink.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{}
	s.initRunnerMetrics(reg)
	s.initDispatcherMetrics(reg)
	s.initTriggerMetrics(reg)
	return s
}

func (s *PrometheusSink) initRunnerMetrics(reg prometheus.Registerer) {
	s.runsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kickback_reminder_runs_total",
		Help: "Total number of reminder runs started.",
	})
	s.runErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kickback_reminder_run_errors_total",
		Help: "Total number of reminder runs that failed outright (selection failure).",
	})
	s.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kickback_reminder_run_duration_seconds",
		Help:    "Duration of each reminder run in seconds.",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
	s.candidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kickback_reminder_candidates_total",
		Help: "Total number of (event, attendee) candidates considered.",
	})
	s.outcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kickback_reminder_outcomes_total",
		Help: "Total candidate outcomes by status.",
	}, []string{"status"})
	s.candidatesInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kickback_reminder_candidates_in_flight",
		Help: "Number of candidates currently being evaluated or dispatched.",
	})

	s.register(reg, s.runsTotal, "kickback_reminder_runs_total")
	s.register(reg, s.runErrorsTotal, "kickback_reminder_run_errors_total")
	s.register(reg, s.runDuration, "kickback_reminder_run_duration_seconds")
	s.register(reg, s.candidatesTotal, "kickback_reminder_candidates_total")
	s.register(reg, s.outcomesTotal, "kickback_reminder_outcomes_total")
	s.register(reg, s.candidatesInFlight, "kickback_reminder_candidates_in_flight")
}

func (s *PrometheusSink) initDispatcherMetrics(reg prometheus.Registerer) {
	s.channelAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kickback_reminder_channel_attempts_total",
		Help: "Total channel send attempts by channel and status class.",
	}, []string{"channel", "status_class"})

	s.channelDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kickback_reminder_channel_duration_seconds",
		Help:    "Provider call latency in seconds by channel.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"channel"})

	s.register(reg, s.channelAttemptsTotal, "kickback_reminder_channel_attempts_total")
	s.register(reg, s.channelDuration, "kickback_reminder_channel_duration_seconds")
}

func (s *PrometheusSink) initTriggerMetrics(reg prometheus.Registerer) {
	s.triggerDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kickback_reminder_trigger_decisions_total",
		Help: "Total trigger endpoint authorization decisions.",
	}, []string{"authorized"})

	s.bufferSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kickback_reminder_candidate_buffer_size",
		Help: "Current number of candidates buffered for dispatch workers.",
	})

	s.register(reg, s.triggerDecisionsTotal, "kickback_reminder_trigger_decisions_total")
	s.register(reg, s.bufferSize, "kickback_reminder_candidate_buffer_size")
}

// register attempts to register a collector, logging any errors without propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: failed to register %s: %v", name, err)
	}
}

func (s *PrometheusSink) RunStarted() {
	s.runsTotal.Inc()
}

func (s *PrometheusSink) RunCompleted(duration time.Duration, candidates int, err error) {
	s.runDuration.Observe(duration.Seconds())
	s.candidatesTotal.Add(float64(candidates))
	if err != nil {
		s.runErrorsTotal.Inc()
	}
}

func (s *PrometheusSink) CandidateOutcome(status string) {
	s.outcomesTotal.WithLabelValues(status).Inc()
}

func (s *PrometheusSink) CandidatesInFlightIncr() {
	s.candidatesInFlight.Inc()
}

func (s *PrometheusSink) CandidatesInFlightDecr() {
	s.candidatesInFlight.Dec()
}

func (s *PrometheusSink) ChannelAttempt(channel, statusClass string, duration time.Duration) {
	s.channelAttemptsTotal.WithLabelValues(channel, statusClass).Inc()
	s.channelDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

func (s *PrometheusSink) TriggerDecision(authorized bool) {
	label := "false"
	if authorized {
		label = "true"
	}
	s.triggerDecisionsTotal.WithLabelValues(label).Inc()
}

func (s *PrometheusSink) BufferSizeUpdate(size int) {
	s.bufferSize.Set(float64(size))
}
