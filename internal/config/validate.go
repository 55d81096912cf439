package config

import (
	"fmt"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate checks the configuration for errors.
// Returns nil if valid, or ValidationErrors if invalid.
func Validate(cfg Config) error {
	var errs ValidationErrors

	// DATABASE_URL is required
	if cfg.DatabaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "DATABASE_URL",
			Message: "required",
		})
	}

	// The trigger endpoint must never run open: at least one credential.
	if cfg.CronSecret == "" && cfg.SchedulerSigningKey == "" {
		errs = append(errs, ValidationError{
			Field:   "CRON_SECRET",
			Message: "either CRON_SECRET or SCHEDULER_SIGNING_KEY must be set",
		})
	}

	// Email is the baseline channel; the service is pointless without it.
	if cfg.SMTPHost == "" {
		errs = append(errs, ValidationError{
			Field:   "SMTP_HOST",
			Message: "required",
		})
	}
	if cfg.SMTPFrom == "" {
		errs = append(errs, ValidationError{
			Field:   "SMTP_FROM",
			Message: "required",
		})
	}

	// Twilio is all-or-nothing: no credentials disables the sms channel,
	// partial credentials is a deployment mistake.
	twilioSet := 0
	for _, v := range []string{cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom} {
		if v != "" {
			twilioSet++
		}
	}
	if twilioSet != 0 && twilioSet != 3 {
		errs = append(errs, ValidationError{
			Field:   "TWILIO_ACCOUNT_SID",
			Message: "TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM must be set together",
		})
	}

	if len(cfg.DefaultPhoneRegion) != 2 {
		errs = append(errs, ValidationError{
			Field:   "DEFAULT_PHONE_REGION",
			Message: fmt.Sprintf("must be a two-letter ISO region, got %q", cfg.DefaultPhoneRegion),
		})
	}

	durations := []struct {
		field string
		value string
	}{
		{"REMINDER_WINDOW", cfg.ReminderWindowStr},
		{"REMINDER_WINDOW_EARLY", cfg.ReminderWindowEarlyStr},
		{"RUN_DEADLINE", cfg.RunDeadlineStr},
		{"SEND_TIMEOUT", cfg.SendTimeoutStr},
		{"DB_CONN_MAX_LIFETIME", cfg.DBConnMaxLifetimeStr},
		{"DB_CONN_MAX_IDLE_TIME", cfg.DBConnMaxIdleTimeStr},
		{"HTTP_SHUTDOWN_TIMEOUT", cfg.HTTPShutdownTimeoutStr},
		{"CIRCUIT_BREAKER_COOLDOWN", cfg.CircuitBreakerCooldownStr},
		{"LEADER_RETRY_INTERVAL", cfg.LeaderRetryIntervalStr},
		{"LEADER_HEARTBEAT_INTERVAL", cfg.LeaderHeartbeatIntervalStr},
		{"PRUNE_INTERVAL", cfg.PruneIntervalStr},
		{"PRUNE_RETENTION", cfg.PruneRetentionStr},
		{"ANALYTICS_RETENTION", cfg.AnalyticsRetentionStr},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   d.field,
				Message: fmt.Sprintf("invalid duration: %v", err),
			})
		} else if parsed <= 0 {
			errs = append(errs, ValidationError{
				Field:   d.field,
				Message: "must be positive",
			})
		}
	}

	// A window narrower than the trigger cadence silently skips reminders.
	if cfg.ReminderWindow > 0 && cfg.ReminderWindow < time.Minute {
		errs = append(errs, ValidationError{
			Field:   "REMINDER_WINDOW",
			Message: "must be at least 1m or target minutes can fall between triggers",
		})
	}

	if cfg.SelfTriggerEnabled && cfg.SelfTriggerCron == "" {
		errs = append(errs, ValidationError{
			Field:   "SELF_TRIGGER_CRON",
			Message: "required when SELF_TRIGGER_ENABLED=true",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
