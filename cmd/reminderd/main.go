package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/alghaibb/kick-back-sub002/internal/analytics"
	"github.com/alghaibb/kick-back-sub002/internal/api"
	"github.com/alghaibb/kick-back-sub002/internal/circuitbreaker"
	"github.com/alghaibb/kick-back-sub002/internal/config"
	"github.com/alghaibb/kick-back-sub002/internal/dispatcher"
	"github.com/alghaibb/kick-back-sub002/internal/leaderelection"
	"github.com/alghaibb/kick-back-sub002/internal/localtime"
	"github.com/alghaibb/kick-back-sub002/internal/metrics"
	"github.com/alghaibb/kick-back-sub002/internal/pruner"
	"github.com/alghaibb/kick-back-sub002/internal/runner"
	"github.com/alghaibb/kick-back-sub002/internal/sender"
	"github.com/alghaibb/kick-back-sub002/internal/store/postgres"
	"github.com/alghaibb/kick-back-sub002/internal/trigger"

	_ "github.com/lib/pq"
)

// Build-time variables set via -ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitSuccess       = 0
	exitRuntimeError  = 1
	exitInvalidConfig = 2
)

// smsDisabled stands in for the Twilio sender when no credentials are
// configured. Attendees who asked for sms get a channel failure, which
// the dispatcher records without blocking their email reminder.
type smsDisabled struct{}

func (smsDisabled) Send(ctx context.Context, toE164, body string) error {
	return errors.New("sms channel not configured")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitRuntimeError)
	}

	cmd := os.Args[1]

	switch cmd {
	case "serve":
		os.Exit(runServe())
	case "validate":
		os.Exit(runValidate())
	case "config":
		os.Exit(runConfig())
	case "version":
		os.Exit(runVersion())
	case "--help", "-h", "help":
		printUsage()
		os.Exit(exitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(exitRuntimeError)
	}
}

func printUsage() {
	fmt.Println(`reminderd - event reminder dispatch service

Usage:
  reminderd <command>

Commands:
  serve      Start the trigger endpoint and dispatch engine
  validate   Validate configuration (no connections made)
  config     Print effective configuration as JSON (secrets masked)
  version    Print version information

Environment Variables:
  DATABASE_URL              PostgreSQL connection string (required)
  CRON_SECRET               Bearer token for the trigger endpoint
  SCHEDULER_SIGNING_KEY     HMAC key for signed trigger requests
                            (at least one of the two is required)
  REDIS_ADDR                Redis address for analytics counters (optional)
  HTTP_ADDR                 HTTP server address (default: ":8080")

  REMINDER_WINDOW           Tolerance after a user's reminder time (default: "2m")
  REMINDER_WINDOW_EARLY     Tolerance before it (default: "30s")
  RUN_DEADLINE              Per-invocation time budget (default: "55s")
  SEND_TIMEOUT              Per-provider-call timeout (default: "10s")
  DISPATCH_WORKERS          Concurrent dispatch workers (default: "4")
  CANDIDATE_BUFFER_SIZE     Candidate bus buffer (default: "100")

  SMTP_HOST                 SMTP server host (required)
  SMTP_PORT                 SMTP server port (default: "587")
  SMTP_USERNAME             SMTP auth username (optional)
  SMTP_PASSWORD             SMTP auth password (optional)
  SMTP_FROM                 From address (required)
  SMTP_FROM_NAME            From display name (optional)

  TWILIO_ACCOUNT_SID        Twilio account SID (optional, enables sms)
  TWILIO_AUTH_TOKEN         Twilio auth token
  TWILIO_FROM               Twilio sending number
  DEFAULT_PHONE_REGION      Region for national-format numbers (default: "AU")

  CIRCUIT_BREAKER_THRESHOLD Consecutive failures before a channel opens
                            (default: "5", "0" disables)
  CIRCUIT_BREAKER_COOLDOWN  Open-state cooldown (default: "2m")

  DB_MAX_OPEN_CONNS         Max open database connections (default: "25")
  DB_MAX_IDLE_CONNS         Max idle database connections (default: "5")
  DB_CONN_MAX_LIFETIME      Max connection lifetime (default: "30m")
  DB_CONN_MAX_IDLE_TIME     Max connection idle time (default: "5m")
  HTTP_SHUTDOWN_TIMEOUT     Graceful HTTP shutdown timeout (default: "10s")

  METRICS_ENABLED           Enable Prometheus metrics (default: "false")
  METRICS_ADDR              Metrics server address (default: ":9090")
  METRICS_PATH              Metrics endpoint path (default: "/metrics")

  SELF_TRIGGER_ENABLED      Fire batches from an in-process cron loop
                            instead of an external scheduler (default: "false")
  SELF_TRIGGER_CRON         Cron cadence (default: "* * * * *")
  SELF_TRIGGER_TIMEZONE     Cadence timezone (default: UTC)
  LEADER_LOCK_KEY           Advisory lock key shared by all replicas
  LEADER_RETRY_INTERVAL     Follower lock retry interval (default: "5s")
  LEADER_HEARTBEAT_INTERVAL Leader connection ping interval (default: "2s")

  PRUNE_ENABLED             Prune old reminder log entries (default: "false")
  PRUNE_INTERVAL            Prune cycle interval (default: "1h")
  PRUNE_RETENTION           Log retention (default: "2160h")
  PRUNE_BATCH_SIZE          Max rows deleted per cycle (default: "1000")
  ANALYTICS_RETENTION       Redis counter TTL (default: "720h")`)
}

func runServe() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		return exitRuntimeError
	}
	defer db.Close()

	// Configure connection pool
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	log.Printf("reminderd: db pool configured (max_open=%d, max_idle=%d, max_lifetime=%s, max_idle_time=%s)",
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		return exitRuntimeError
	}

	store := postgres.New(db)

	// Initialize metrics sink (optional)
	var metricsSink *metrics.PrometheusSink
	var metricsServer *http.Server

	if cfg.MetricsEnabled {
		metricsSink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
		log.Printf("reminderd: metrics enabled (addr=%s, path=%s)", cfg.MetricsAddr, cfg.MetricsPath)

		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.MetricsPath, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: metricsMux,
		}
		go func() {
			log.Printf("reminderd: metrics server listening on %s", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("reminderd: metrics server error: %v", err)
			}
		}()
	} else {
		log.Println("reminderd: METRICS_ENABLED not set; metrics disabled")
	}

	// Channel senders
	email := sender.NewSMTPEmailSender(sender.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		Timeout:  cfg.SendTimeout,
	})

	var sms sender.SMSSender = smsDisabled{}
	if cfg.TwilioAccountSID != "" {
		sms = sender.NewTwilioSMSSender(sender.TwilioConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioFrom,
			Timeout:    cfg.SendTimeout,
		})
		log.Println("reminderd: sms channel enabled (twilio)")
	} else {
		log.Println("reminderd: TWILIO_ACCOUNT_SID not set; sms channel disabled")
	}

	disp := dispatcher.New(email, sms, cfg.DefaultPhoneRegion)
	if cfg.CircuitBreakerThreshold > 0 {
		disp = disp.WithBreaker(circuitbreaker.New(cfg.CircuitBreakerThreshold, cfg.CircuitBreakerCooldown))
		log.Printf("reminderd: circuit breaker enabled (threshold=%d, cooldown=%s)",
			cfg.CircuitBreakerThreshold, cfg.CircuitBreakerCooldown)
	}
	if metricsSink != nil {
		disp = disp.WithMetrics(metricsSink)
	}

	run := runner.New(
		runner.Config{
			Window: localtime.Window{
				Early: cfg.ReminderWindowEarly,
				After: cfg.ReminderWindow,
			},
			Workers:     cfg.DispatchWorkers,
			RunDeadline: cfg.RunDeadline,
			BufferSize:  cfg.CandidateBufferSize,
		},
		store,
		disp,
	)
	if metricsSink != nil {
		run = run.WithMetrics(metricsSink)
	}

	// Wire analytics if Redis is configured
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		run = run.WithAnalytics(analytics.NewRedisSink(redisClient, cfg.AnalyticsRetention))
		log.Printf("reminderd: analytics enabled (redis=%s)", cfg.RedisAddr)
	} else {
		log.Println("reminderd: REDIS_ADDR not set; analytics disabled")
	}

	apiHandler := api.NewHandler(run, api.Auth{
		CronSecret: cfg.CronSecret,
		SigningKey: cfg.SchedulerSigningKey,
	}).WithHealthChecker(db)
	if metricsSink != nil {
		apiHandler = apiHandler.WithMetrics(metricsSink)
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: apiHandler,
	}

	go func() {
		log.Printf("reminderd: http server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("reminderd: http server error: %v", err)
		}
	}()

	// Background duties (self-trigger loop, pruner) run on one replica
	// only, guarded by leader election.
	var electorWg sync.WaitGroup
	var cancelElector context.CancelFunc

	if cfg.SelfTriggerEnabled || cfg.PruneEnabled {
		var selfTrig *trigger.SelfTrigger
		if cfg.SelfTriggerEnabled {
			selfTrig, err = trigger.New(cfg.SelfTriggerCron, cfg.SelfTriggerTimezone, run)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid SELF_TRIGGER_CRON: %v\n", err)
				return exitInvalidConfig
			}
			log.Printf("reminderd: self-trigger enabled (cron=%q)", cfg.SelfTriggerCron)
		}

		var pr *pruner.Pruner
		if cfg.PruneEnabled {
			pr = pruner.New(pruner.Config{
				Interval:  cfg.PruneInterval,
				Retention: cfg.PruneRetention,
				BatchSize: cfg.PruneBatchSize,
			}, store)
			log.Printf("reminderd: pruner enabled (interval=%s, retention=%s, batch=%d)",
				cfg.PruneInterval, cfg.PruneRetention, cfg.PruneBatchSize)
		}

		var dutiesWg sync.WaitGroup
		onElected := func(leaderCtx context.Context) {
			if selfTrig != nil {
				dutiesWg.Add(1)
				go func() {
					defer dutiesWg.Done()
					selfTrig.Run(leaderCtx)
				}()
			}
			if pr != nil {
				dutiesWg.Add(1)
				go func() {
					defer dutiesWg.Done()
					pr.Run(leaderCtx)
				}()
			}
		}
		onDemoted := func() {
			dutiesWg.Wait()
		}

		elector := leaderelection.New(db, cfg.LeaderLockKey,
			cfg.LeaderRetryInterval, cfg.LeaderHeartbeatInterval,
			onElected, onDemoted)

		var electorCtx context.Context
		electorCtx, cancelElector = context.WithCancel(context.Background())
		electorWg.Add(1)
		go func() {
			defer electorWg.Done()
			elector.Run(electorCtx)
		}()
	}

	log.Printf("reminderd: started (http=%s, workers=%d, window=-%s/+%s)",
		cfg.HTTPAddr, cfg.DispatchWorkers, cfg.ReminderWindowEarly, cfg.ReminderWindow)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig

	log.Printf("reminderd: received signal %v, shutting down", received)

	// Phase 1: Stop background duties (no new self-triggered batches)
	if cancelElector != nil {
		log.Println("reminderd: stopping leader duties...")
		cancelElector()
		electorWg.Wait()
		log.Println("reminderd: leader duties stopped")
	}

	// Phase 2: Stop HTTP server; in-flight trigger requests finish within
	// their own run deadline or the shutdown timeout, whichever is first.
	log.Println("reminderd: stopping http server...")
	httpShutdownCtx, httpShutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer httpShutdownCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		log.Printf("reminderd: http server shutdown error: %v", err)
	}
	log.Println("reminderd: http server stopped")

	// Phase 3: Stop metrics server if running (with same timeout)
	if metricsServer != nil {
		log.Println("reminderd: stopping metrics server...")
		metricsShutdownCtx, metricsShutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer metricsShutdownCancel()
		if err := metricsServer.Shutdown(metricsShutdownCtx); err != nil {
			log.Printf("reminderd: metrics server shutdown error: %v", err)
		}
		log.Println("reminderd: metrics server stopped")
	}

	log.Println("reminderd: stopped")
	return exitSuccess
}

func runValidate() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitInvalidConfig
	}

	fmt.Println("configuration valid")
	return exitSuccess
}

func runConfig() int {
	cfg := config.Load()

	data, err := cfg.MaskedJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal config: %v\n", err)
		return exitRuntimeError
	}

	fmt.Println(string(data))
	return exitSuccess
}

func runVersion() int {
	fmt.Printf("reminderd version %s (commit: %s)\n", version, commit)
	return exitSuccess
}
