package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/skillforge/internal/api"
	"github.com/vytor/skillforge/internal/cache"
	"github.com/vytor/skillforge/internal/catalog"
	"github.com/vytor/skillforge/internal/config"
	"github.com/vytor/skillforge/internal/db"
	"github.com/vytor/skillforge/internal/evaluator"
	"github.com/vytor/skillforge/internal/jobs"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/notify"
	"github.com/vytor/skillforge/internal/repository/sqlite"
	"github.com/vytor/skillforge/internal/scheduler"
	"github.com/vytor/skillforge/internal/services"
	"github.com/vytor/skillforge/internal/worker"
)

const sweepBatch = 100

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(logger.ParseFormat(cfg.LogFormat)),
		logger.WithColors(cfg.LogFormat != "json"),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("SkillForge Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("catalog_dir=%s", cfg.CatalogDir)
	log.Debug("free_challenges_per_week=%d", cfg.FreeChallengesPerWeek)
	log.Debug("evaluator_url=%s", cfg.EvaluatorURL)
	log.Debug("evaluation_timeout=%s", cfg.EvaluationTimeout)
	log.Debug("redis_addr=%s", cfg.RedisAddr)
	log.Debug("worker_count=%d", cfg.WorkerCount)
	log.Debug("queue_size=%d", cfg.QueueSize)
	log.Debug("sweep_interval=%s", cfg.SweepInterval)
	log.Debug("pending_redispatch_after=%s", cfg.PendingRedispatchAfter)
	log.Debug("pending_timeout=%s", cfg.PendingTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	submissionRepo := sqlite.NewSubmissionRepository(database.DB)
	challengeRepo := sqlite.NewChallengeRepository(database.DB)
	profileRepo := sqlite.NewProfileRepository(database.DB)
	achievementRepo := sqlite.NewAchievementRepository(database.DB)
	subscriptionRepo := sqlite.NewSubscriptionRepository(database.DB)
	progressRepo := sqlite.NewProgressRepository(database.DB)
	leaderboardRepo := sqlite.NewLeaderboardRepository(database.DB)

	// Seed the challenge and achievement catalog
	now := time.Now().UTC()
	var cat *catalog.Catalog
	if cfg.CatalogDir != "" {
		cat, err = catalog.LoadDir(cfg.CatalogDir, now)
	} else {
		cat, err = catalog.Default(now)
	}
	if err != nil {
		log.Error("failed to load catalog: %v", err)
		os.Exit(1)
	}
	if err := catalog.Seed(ctx, cat, challengeRepo, achievementRepo); err != nil {
		log.Error("failed to seed catalog: %v", err)
		os.Exit(1)
	}

	var boardCache cache.LeaderboardCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Error("failed to connect to redis: %v", err)
			os.Exit(1)
		}
		defer client.Close()
		boardCache = cache.NewRedisCache(client, cfg.LeaderboardCacheTTL)
		log.Info("leaderboard cache: redis at %s", cfg.RedisAddr)
	} else {
		boardCache = cache.NewMemoryCache(cfg.LeaderboardCacheTTL)
		log.Info("leaderboard cache: in-memory")
	}

	var notifier worker.Notifier = notify.LogNotifier{}
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.NotifyWebhookURL, &http.Client{Timeout: 10 * time.Second})
	}

	// Initialize worker pool and job queue
	pool := worker.NewPool(cfg.WorkerCount, cfg.QueueSize)
	queue := jobs.NewWorkerQueue(pool, notifier)

	// Initialize services
	backoff := services.DefaultProgressBackoff()
	backoff.InitialDelay = cfg.ProgressRetryInitial
	backoff.MaxDelay = cfg.ProgressRetryMax
	progressService := services.NewProgressService(progressRepo, boardCache, queue, backoff, nil)
	submissionService := services.NewSubmissionService(submissionRepo, challengeRepo, progressService, queue, services.SubmissionConfig{
		FreeChallengesPerWeek:  cfg.FreeChallengesPerWeek,
		MaxPayloadBytes:        cfg.MaxPayloadBytes,
		EvaluationTimeout:      cfg.EvaluationTimeout,
		PendingRedispatchAfter: cfg.PendingRedispatchAfter,
		PendingTimeout:         cfg.PendingTimeout,
	}, nil)

	if cfg.EvaluatorURL != "" {
		evaluation := services.NewEvaluationService(submissionService, challengeRepo, evaluator.New(cfg.EvaluatorURL), cfg.EvaluationTimeout)
		queue.Bind(evaluation, progressService)
		log.Info("evaluator configured: %s", cfg.EvaluatorURL)
	} else {
		queue.Bind(nil, progressService)
		log.Info("no evaluator configured; grading is driven through /internal")
	}

	srv := &api.Server{
		DB:            database.DB,
		Submissions:   submissionService,
		Entitlements:  services.NewEntitlementService(subscriptionRepo, submissionRepo, challengeRepo, cfg.FreeChallengesPerWeek, nil),
		Challenges:    services.NewChallengeService(challengeRepo, nil),
		Leaderboard:   services.NewLeaderboardService(leaderboardRepo, boardCache, cfg.LeaderboardDemoThreshold, nil),
		Profiles:      services.NewProfileService(profileRepo, achievementRepo, nil),
		Progress:      progressService,
		JWTSecret:     []byte(cfg.JWTSecret),
		InternalToken: cfg.InternalToken,
		CORSOrigins:   cfg.CORSOrigins,
		MaxBodyBytes:  int64(cfg.MaxPayloadBytes) + 4096,
	}

	// Periodic maintenance
	sched := scheduler.New()
	mustRegister := func(job scheduler.Job) {
		if err := sched.Register(job, cfg.SweepInterval); err != nil {
			log.Error("failed to register job %s: %v", job.Name(), err)
			os.Exit(1)
		}
	}
	mustRegister(scheduler.JobFunc{JobName: "expire_stale_evaluations", Fn: func(ctx context.Context) error {
		n, err := submissionService.ExpireStale(ctx, sweepBatch)
		if n > 0 {
			logger.FromContext(ctx).Info("expired %d stale evaluations", n)
		}
		return err
	}})
	mustRegister(scheduler.JobFunc{JobName: "recover_pending_submissions", Fn: func(ctx context.Context) error {
		_, err := submissionService.RecoverPending(ctx, sweepBatch)
		return err
	}})
	mustRegister(scheduler.JobFunc{JobName: "retry_pending_progress", Fn: func(ctx context.Context) error {
		n, err := progressService.RetryPending(ctx, sweepBatch)
		if n > 0 {
			logger.FromContext(ctx).Info("dispatched %d due progress events", n)
		}
		return err
	}})

	pool.Start(ctx)
	if err := sched.Start(ctx); err != nil {
		log.Error("failed to start scheduler: %v", err)
		os.Exit(1)
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping scheduler")
	sched.Stop()

	// Stop accepting jobs, then cancel whatever is still running. Interrupted
	// evaluations are picked up by the stale sweep on the next start.
	log.Debug("stopping worker pool")
	cancel()
	pool.Stop()

	log.Info("===========================================")
	log.Info("SkillForge Server Stopped")
	log.Info("===========================================")
}
