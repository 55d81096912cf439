package config

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// Config holds all configuration for the reminder service.
// Values are loaded from environment variables; see printUsage() for the full list.
type Config struct {
	DatabaseURL string `json:"database_url"`
	RedisAddr   string `json:"redis_addr,omitempty"`
	HTTPAddr    string `json:"http_addr"`

	// Trigger endpoint credentials. At least one must be set.
	CronSecret          string `json:"cron_secret"`
	SchedulerSigningKey string `json:"scheduler_signing_key"`

	// ReminderWindow is the tolerance after a user's configured reminder
	// time; ReminderWindowEarly the tolerance before it. Together they must
	// comfortably exceed the trigger cadence or target minutes get skipped.
	ReminderWindow         time.Duration `json:"-"`
	ReminderWindowStr      string        `json:"reminder_window"`
	ReminderWindowEarly    time.Duration `json:"-"`
	ReminderWindowEarlyStr string        `json:"reminder_window_early"`

	DispatchWorkers     int `json:"dispatch_workers"`
	CandidateBufferSize int `json:"candidate_buffer_size"`

	// RunDeadline bounds a whole trigger invocation. Keep it under the
	// external scheduler's own request timeout.
	RunDeadline    time.Duration `json:"-"`
	RunDeadlineStr string        `json:"run_deadline"`

	// SendTimeout bounds each individual provider call.
	SendTimeout    time.Duration `json:"-"`
	SendTimeoutStr string        `json:"send_timeout"`

	DBMaxOpenConns       int           `json:"db_max_open_conns"`
	DBMaxIdleConns       int           `json:"db_max_idle_conns"`
	DBConnMaxLifetime    time.Duration `json:"-"`
	DBConnMaxLifetimeStr string        `json:"db_conn_max_lifetime"`
	DBConnMaxIdleTime    time.Duration `json:"-"`
	DBConnMaxIdleTimeStr string        `json:"db_conn_max_idle_time"`

	HTTPShutdownTimeout    time.Duration `json:"-"`
	HTTPShutdownTimeoutStr string        `json:"http_shutdown_timeout"`

	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsAddr    string `json:"metrics_addr"`
	MetricsPath    string `json:"metrics_path"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	SMTPFrom     string `json:"smtp_from"`
	SMTPFromName string `json:"smtp_from_name"`

	TwilioAccountSID string `json:"twilio_account_sid"`
	TwilioAuthToken  string `json:"twilio_auth_token"`
	TwilioFrom       string `json:"twilio_from"`

	// DefaultPhoneRegion is the ISO 3166-1 region used to normalize
	// national-format numbers when the user's timezone gives no hint.
	DefaultPhoneRegion string `json:"default_phone_region"`

	// CircuitBreakerThreshold: 0 disables the circuit breaker.
	CircuitBreakerThreshold   int           `json:"circuit_breaker_threshold"`
	CircuitBreakerCooldown    time.Duration `json:"-"`
	CircuitBreakerCooldownStr string        `json:"circuit_breaker_cooldown"`

	// SelfTriggerEnabled runs an in-process cron loop instead of relying on
	// an external scheduler. Multi-replica deployments get leader election.
	SelfTriggerEnabled  bool   `json:"self_trigger_enabled"`
	SelfTriggerCron     string `json:"self_trigger_cron"`
	SelfTriggerTimezone string `json:"self_trigger_timezone,omitempty"`

	// LeaderLockKey: all instances sharing the same database must use the same key.
	LeaderLockKey int64 `json:"leader_lock_key"`

	LeaderRetryInterval        time.Duration `json:"-"`
	LeaderRetryIntervalStr     string        `json:"leader_retry_interval"`
	LeaderHeartbeatInterval    time.Duration `json:"-"`
	LeaderHeartbeatIntervalStr string        `json:"leader_heartbeat_interval"`

	PruneEnabled      bool          `json:"prune_enabled"`
	PruneInterval     time.Duration `json:"-"`
	PruneIntervalStr  string        `json:"prune_interval"`
	PruneRetention    time.Duration `json:"-"`
	PruneRetentionStr string        `json:"prune_retention"`
	PruneBatchSize    int           `json:"prune_batch_size"`

	AnalyticsRetention    time.Duration `json:"-"`
	AnalyticsRetentionStr string        `json:"analytics_retention"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	cfg := Config{
		DatabaseURL:                os.Getenv("DATABASE_URL"),
		RedisAddr:                  os.Getenv("REDIS_ADDR"),
		HTTPAddr:                   os.Getenv("HTTP_ADDR"),
		CronSecret:                 os.Getenv("CRON_SECRET"),
		SchedulerSigningKey:        os.Getenv("SCHEDULER_SIGNING_KEY"),
		ReminderWindowStr:          os.Getenv("REMINDER_WINDOW"),
		ReminderWindowEarlyStr:     os.Getenv("REMINDER_WINDOW_EARLY"),
		RunDeadlineStr:             os.Getenv("RUN_DEADLINE"),
		SendTimeoutStr:             os.Getenv("SEND_TIMEOUT"),
		DBConnMaxLifetimeStr:       os.Getenv("DB_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTimeStr:       os.Getenv("DB_CONN_MAX_IDLE_TIME"),
		HTTPShutdownTimeoutStr:     os.Getenv("HTTP_SHUTDOWN_TIMEOUT"),
		MetricsEnabled:             os.Getenv("METRICS_ENABLED") == "true",
		MetricsAddr:                os.Getenv("METRICS_ADDR"),
		MetricsPath:                os.Getenv("METRICS_PATH"),
		SMTPHost:                   os.Getenv("SMTP_HOST"),
		SMTPUsername:               os.Getenv("SMTP_USERNAME"),
		SMTPPassword:               os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:                   os.Getenv("SMTP_FROM"),
		SMTPFromName:               os.Getenv("SMTP_FROM_NAME"),
		TwilioAccountSID:           os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:            os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:                 os.Getenv("TWILIO_FROM"),
		DefaultPhoneRegion:         os.Getenv("DEFAULT_PHONE_REGION"),
		CircuitBreakerCooldownStr:  os.Getenv("CIRCUIT_BREAKER_COOLDOWN"),
		SelfTriggerEnabled:         os.Getenv("SELF_TRIGGER_ENABLED") == "true",
		SelfTriggerCron:            os.Getenv("SELF_TRIGGER_CRON"),
		SelfTriggerTimezone:        os.Getenv("SELF_TRIGGER_TIMEZONE"),
		LeaderRetryIntervalStr:     os.Getenv("LEADER_RETRY_INTERVAL"),
		LeaderHeartbeatIntervalStr: os.Getenv("LEADER_HEARTBEAT_INTERVAL"),
		PruneEnabled:               os.Getenv("PRUNE_ENABLED") == "true",
		PruneIntervalStr:           os.Getenv("PRUNE_INTERVAL"),
		PruneRetentionStr:          os.Getenv("PRUNE_RETENTION"),
		AnalyticsRetentionStr:      os.Getenv("ANALYTICS_RETENTION"),
	}

	if workersStr := os.Getenv("DISPATCH_WORKERS"); workersStr != "" {
		if n, err := parseInt(workersStr); err == nil && n > 0 {
			cfg.DispatchWorkers = n
		} else {
			log.Printf("config: invalid DISPATCH_WORKERS %q (must be a positive integer), using default 4", workersStr)
		}
	}
	if cfg.DispatchWorkers == 0 {
		cfg.DispatchWorkers = 4
	}

	if bufStr := os.Getenv("CANDIDATE_BUFFER_SIZE"); bufStr != "" {
		if n, err := parseInt(bufStr); err == nil && n > 0 {
			cfg.CandidateBufferSize = n
		} else {
			log.Printf("config: invalid CANDIDATE_BUFFER_SIZE %q (must be a positive integer), using default 100", bufStr)
		}
	}
	if cfg.CandidateBufferSize == 0 {
		cfg.CandidateBufferSize = 100
	}

	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if n, err := parseInt(portStr); err == nil && n > 0 {
			cfg.SMTPPort = n
		} else {
			log.Printf("config: invalid SMTP_PORT %q, using default 587", portStr)
		}
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}

	if cbThreshStr := os.Getenv("CIRCUIT_BREAKER_THRESHOLD"); cbThreshStr != "" {
		if n, err := parseInt(cbThreshStr); err == nil {
			cfg.CircuitBreakerThreshold = n
		} else {
			log.Printf("config: invalid CIRCUIT_BREAKER_THRESHOLD %q, using default 5", cbThreshStr)
		}
	}
	if cfg.CircuitBreakerThreshold == 0 && os.Getenv("CIRCUIT_BREAKER_THRESHOLD") == "" {
		cfg.CircuitBreakerThreshold = 5
	}

	if lockKeyStr := os.Getenv("LEADER_LOCK_KEY"); lockKeyStr != "" {
		if n, err := parseInt(lockKeyStr); err == nil && n > 0 {
			cfg.LeaderLockKey = int64(n)
		} else {
			log.Printf("config: invalid LEADER_LOCK_KEY %q (must be a positive integer), using default 918273", lockKeyStr)
		}
	}
	if cfg.LeaderLockKey == 0 {
		cfg.LeaderLockKey = 918273
	}

	if batchStr := os.Getenv("PRUNE_BATCH_SIZE"); batchStr != "" {
		if n, err := parseInt(batchStr); err == nil && n > 0 {
			cfg.PruneBatchSize = n
		}
	}
	if cfg.PruneBatchSize == 0 {
		cfg.PruneBatchSize = 1000
	}

	if maxOpenStr := os.Getenv("DB_MAX_OPEN_CONNS"); maxOpenStr != "" {
		if n, err := parseInt(maxOpenStr); err == nil && n > 0 {
			cfg.DBMaxOpenConns = n
		}
	}
	if cfg.DBMaxOpenConns == 0 {
		cfg.DBMaxOpenConns = 25
	}

	if maxIdleStr := os.Getenv("DB_MAX_IDLE_CONNS"); maxIdleStr != "" {
		if n, err := parseInt(maxIdleStr); err == nil && n > 0 {
			cfg.DBMaxIdleConns = n
		}
	}
	if cfg.DBMaxIdleConns == 0 {
		cfg.DBMaxIdleConns = 5
	}

	// Support Railway's PORT variable as fallback for HTTP_ADDR.
	if cfg.HTTPAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.HTTPAddr = ":" + port
		} else {
			cfg.HTTPAddr = ":8080"
		}
	}
	if cfg.ReminderWindowStr == "" {
		cfg.ReminderWindowStr = "2m"
	}
	if cfg.ReminderWindowEarlyStr == "" {
		cfg.ReminderWindowEarlyStr = "30s"
	}
	if cfg.RunDeadlineStr == "" {
		cfg.RunDeadlineStr = "55s"
	}
	if cfg.SendTimeoutStr == "" {
		cfg.SendTimeoutStr = "10s"
	}
	if cfg.DBConnMaxLifetimeStr == "" {
		cfg.DBConnMaxLifetimeStr = "30m"
	}
	if cfg.DBConnMaxIdleTimeStr == "" {
		cfg.DBConnMaxIdleTimeStr = "5m"
	}
	if cfg.HTTPShutdownTimeoutStr == "" {
		cfg.HTTPShutdownTimeoutStr = "10s"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.DefaultPhoneRegion == "" {
		cfg.DefaultPhoneRegion = "AU"
	}
	if cfg.CircuitBreakerCooldownStr == "" {
		cfg.CircuitBreakerCooldownStr = "2m"
	}
	if cfg.SelfTriggerCron == "" {
		cfg.SelfTriggerCron = "* * * * *"
	}
	if cfg.LeaderRetryIntervalStr == "" {
		cfg.LeaderRetryIntervalStr = "5s"
	}
	if cfg.LeaderHeartbeatIntervalStr == "" {
		cfg.LeaderHeartbeatIntervalStr = "2s"
	}
	if cfg.PruneIntervalStr == "" {
		cfg.PruneIntervalStr = "1h"
	}
	if cfg.PruneRetentionStr == "" {
		cfg.PruneRetentionStr = "2160h" // 90 days
	}
	if cfg.AnalyticsRetentionStr == "" {
		cfg.AnalyticsRetentionStr = "720h" // 30 days
	}

	// Parse durations; validation is handled separately by Validate().
	if d, err := time.ParseDuration(cfg.ReminderWindowStr); err == nil {
		cfg.ReminderWindow = d
	}
	if d, err := time.ParseDuration(cfg.ReminderWindowEarlyStr); err == nil {
		cfg.ReminderWindowEarly = d
	}
	if d, err := time.ParseDuration(cfg.RunDeadlineStr); err == nil {
		cfg.RunDeadline = d
	}
	if d, err := time.ParseDuration(cfg.SendTimeoutStr); err == nil {
		cfg.SendTimeout = d
	}
	if d, err := time.ParseDuration(cfg.DBConnMaxLifetimeStr); err == nil {
		cfg.DBConnMaxLifetime = d
	}
	if d, err := time.ParseDuration(cfg.DBConnMaxIdleTimeStr); err == nil {
		cfg.DBConnMaxIdleTime = d
	}
	if d, err := time.ParseDuration(cfg.HTTPShutdownTimeoutStr); err == nil {
		cfg.HTTPShutdownTimeout = d
	}
	if d, err := time.ParseDuration(cfg.CircuitBreakerCooldownStr); err == nil {
		cfg.CircuitBreakerCooldown = d
	}
	if d, err := time.ParseDuration(cfg.LeaderRetryIntervalStr); err == nil {
		cfg.LeaderRetryInterval = d
	}
	if d, err := time.ParseDuration(cfg.LeaderHeartbeatIntervalStr); err == nil {
		cfg.LeaderHeartbeatInterval = d
	}
	if d, err := time.ParseDuration(cfg.PruneIntervalStr); err == nil {
		cfg.PruneInterval = d
	}
	if d, err := time.ParseDuration(cfg.PruneRetentionStr); err == nil {
		cfg.PruneRetention = d
	}
	if d, err := time.ParseDuration(cfg.AnalyticsRetentionStr); err == nil {
		cfg.AnalyticsRetention = d
	}

	return cfg
}

// parseInt parses a string as a non-negative integer.
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, os.ErrInvalid
	}
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, os.ErrInvalid
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// MaskedJSON returns the configuration as JSON with secrets masked.
func (c Config) MaskedJSON() ([]byte, error) {
	masked := struct {
		DatabaseURL             string `json:"database_url"`
		RedisAddr               string `json:"redis_addr,omitempty"`
		HTTPAddr                string `json:"http_addr"`
		CronSecret              string `json:"cron_secret"`
		SchedulerSigningKey     string `json:"scheduler_signing_key"`
		ReminderWindow          string `json:"reminder_window"`
		ReminderWindowEarly     string `json:"reminder_window_early"`
		DispatchWorkers         int    `json:"dispatch_workers"`
		CandidateBufferSize     int    `json:"candidate_buffer_size"`
		RunDeadline             string `json:"run_deadline"`
		SendTimeout             string `json:"send_timeout"`
		DBMaxOpenConns          int    `json:"db_max_open_conns"`
		DBMaxIdleConns          int    `json:"db_max_idle_conns"`
		DBConnMaxLifetime       string `json:"db_conn_max_lifetime"`
		DBConnMaxIdleTime       string `json:"db_conn_max_idle_time"`
		HTTPShutdownTimeout     string `json:"http_shutdown_timeout"`
		MetricsEnabled          bool   `json:"metrics_enabled"`
		MetricsAddr             string `json:"metrics_addr"`
		MetricsPath             string `json:"metrics_path"`
		SMTPHost                string `json:"smtp_host"`
		SMTPPort                int    `json:"smtp_port"`
		SMTPUsername            string `json:"smtp_username"`
		SMTPPassword            string `json:"smtp_password"`
		SMTPFrom                string `json:"smtp_from"`
		SMTPFromName            string `json:"smtp_from_name"`
		TwilioAccountSID        string `json:"twilio_account_sid"`
		TwilioAuthToken         string `json:"twilio_auth_token"`
		TwilioFrom              string `json:"twilio_from"`
		DefaultPhoneRegion      string `json:"default_phone_region"`
		CircuitBreakerThreshold int    `json:"circuit_breaker_threshold"`
		CircuitBreakerCooldown  string `json:"circuit_breaker_cooldown"`
		SelfTriggerEnabled      bool   `json:"self_trigger_enabled"`
		SelfTriggerCron         string `json:"self_trigger_cron"`
		SelfTriggerTimezone     string `json:"self_trigger_timezone,omitempty"`
		LeaderLockKey           int64  `json:"leader_lock_key"`
		LeaderRetryInterval     string `json:"leader_retry_interval"`
		LeaderHeartbeatInterval string `json:"leader_heartbeat_interval"`
		PruneEnabled            bool   `json:"prune_enabled"`
		PruneInterval           string `json:"prune_interval"`
		PruneRetention          string `json:"prune_retention"`
		PruneBatchSize          int    `json:"prune_batch_size"`
		AnalyticsRetention      string `json:"analytics_retention"`
	}{
		DatabaseURL:             maskSecret(c.DatabaseURL),
		RedisAddr:               c.RedisAddr,
		HTTPAddr:                c.HTTPAddr,
		CronSecret:              maskIfSet(c.CronSecret),
		SchedulerSigningKey:     maskIfSet(c.SchedulerSigningKey),
		ReminderWindow:          c.ReminderWindowStr,
		ReminderWindowEarly:     c.ReminderWindowEarlyStr,
		DispatchWorkers:         c.DispatchWorkers,
		CandidateBufferSize:     c.CandidateBufferSize,
		RunDeadline:             c.RunDeadlineStr,
		SendTimeout:             c.SendTimeoutStr,
		DBMaxOpenConns:          c.DBMaxOpenConns,
		DBMaxIdleConns:          c.DBMaxIdleConns,
		DBConnMaxLifetime:       c.DBConnMaxLifetimeStr,
		DBConnMaxIdleTime:       c.DBConnMaxIdleTimeStr,
		HTTPShutdownTimeout:     c.HTTPShutdownTimeoutStr,
		MetricsEnabled:          c.MetricsEnabled,
		MetricsAddr:             c.MetricsAddr,
		MetricsPath:             c.MetricsPath,
		SMTPHost:                c.SMTPHost,
		SMTPPort:                c.SMTPPort,
		SMTPUsername:            c.SMTPUsername,
		SMTPPassword:            maskIfSet(c.SMTPPassword),
		SMTPFrom:                c.SMTPFrom,
		SMTPFromName:            c.SMTPFromName,
		TwilioAccountSID:        c.TwilioAccountSID,
		TwilioAuthToken:         maskIfSet(c.TwilioAuthToken),
		TwilioFrom:              c.TwilioFrom,
		DefaultPhoneRegion:      c.DefaultPhoneRegion,
		CircuitBreakerThreshold: c.CircuitBreakerThreshold,
		CircuitBreakerCooldown:  c.CircuitBreakerCooldownStr,
		SelfTriggerEnabled:      c.SelfTriggerEnabled,
		SelfTriggerCron:         c.SelfTriggerCron,
		SelfTriggerTimezone:     c.SelfTriggerTimezone,
		LeaderLockKey:           c.LeaderLockKey,
		LeaderRetryInterval:     c.LeaderRetryIntervalStr,
		LeaderHeartbeatInterval: c.LeaderHeartbeatIntervalStr,
		PruneEnabled:            c.PruneEnabled,
		PruneInterval:           c.PruneIntervalStr,
		PruneRetention:          c.PruneRetentionStr,
		PruneBatchSize:          c.PruneBatchSize,
		AnalyticsRetention:      c.AnalyticsRetentionStr,
	}
	return json.MarshalIndent(masked, "", "  ")
}

// maskSecret masks a secret value, preserving only the URI scheme if present.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if len(s) >= len(scheme) && s[:len(scheme)] == scheme {
			return scheme + "***"
		}
	}
	return "***"
}

func maskIfSet(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
