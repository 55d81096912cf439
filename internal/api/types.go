package api

import (
	"time"

	"github.com/alghaibb/kick-back-sub002/internal/domain"
)

// SummaryResponse is the trigger endpoint's JSON body: what one
// invocation considered, sent, skipped, and failed.
type SummaryResponse struct {
	Candidates int `json:"candidates"`

	SentEmail int `json:"sent_email"`
	SentSMS   int `json:"sent_sms"`

	SkippedWindow      int `json:"skipped_window"`
	SkippedAlreadySent int `json:"skipped_already_sent"`
	SkippedNotTomorrow int `json:"skipped_not_tomorrow"`

	FailedEmail      int `json:"failed_email"`
	FailedSMS        int `json:"failed_sms"`
	FailedEvaluation int `json:"failed_evaluation"`

	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

func newSummaryResponse(s domain.Summary) SummaryResponse {
	return SummaryResponse{
		Candidates:         s.Candidates,
		SentEmail:          s.SentEmail,
		SentSMS:            s.SentSMS,
		SkippedWindow:      s.SkippedWindow,
		SkippedAlreadySent: s.SkippedAlreadySent,
		SkippedNotTomorrow: s.SkippedNotTomorrow,
		FailedEmail:        s.FailedEmail,
		FailedSMS:          s.FailedSMS,
		FailedEvaluation:   s.FailedEvaluation,
		StartedAt:          formatTime(s.StartedAt),
		FinishedAt:         formatTime(s.FinishedAt),
	}
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
