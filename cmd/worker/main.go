// Package main - точка входа фонового воркера Rollbook.
//
// Воркер крутит планировщик: периодически ищет контакты с длинными
// сериями пропусков и пересобирает сводку ростера, складывая её в Redis.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rollbook-hub/rollbook/config"
	"github.com/rollbook-hub/rollbook/internal/application/eventhandler"
	"github.com/rollbook-hub/rollbook/internal/application/query"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/messaging"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/persistence/postgres"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/persistence/redis"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/scheduler"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/scheduler/jobs"
	"github.com/rollbook-hub/rollbook/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting Rollbook worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	if !cfg.Scheduler.Enabled {
		return errors.New("scheduler is disabled, nothing to do")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required for the worker")
	}

	log.Info("connecting to database...")
	dbConn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	}, retry.WithMaxAttempts(5), retry.WithInitialDelay(500*time.Millisecond),
		retry.WithRetryIf(func(error) bool { return true }))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	repo := postgres.NewPersonRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS ДЛЯ ПРЕДСОБРАННЫХ СВОДОК (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var summaryCache jobs.SummaryCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		redisCache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, summaries not cached", "error", err)
		} else {
			defer redisCache.Close()
			summaryCache = redisCache
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	eventBusConfig := messaging.DefaultConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		_ = eventBus.Close()
	}()

	// Детектор пропусков публикует события в эту же шину - алертим здесь же.
	absenceAlerts := eventhandler.NewOnAbsenceDetectedHandler(eventhandler.AbsenceAlertConfig{
		MinStreak: cfg.Scheduler.AbsenceStreakThreshold,
		Logger:    log,
	})
	if err := eventBus.Subscribe(shared.EventAbsenceDetected, absenceAlerts); err != nil {
		return fmt.Errorf("failed to subscribe absence alerts: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПЛАНИРОВЩИК И ДЖОБЫ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	// Без кеша на чтение: воркер - единственный писатель сводки,
	// читать свою же запись ему незачем.
	summaryHandler := query.NewAttendanceSummaryHandler(repo, nil)

	rebuildJob := jobs.NewRebuildSummariesJob(summaryHandler, summaryCache, eventBus, jobs.RebuildSummariesConfig{
		Logger: log,
	})
	if err := sched.Register(rebuildJob, scheduler.NewDailySchedule(cfg.Scheduler.SummaryHour, cfg.Scheduler.SummaryMinute)); err != nil {
		return fmt.Errorf("failed to register summary job: %w", err)
	}

	absenteesJob := jobs.NewDetectAbsenteesJob(repo, eventBus, jobs.DetectAbsenteesConfig{
		MinStreak: cfg.Scheduler.AbsenceStreakThreshold,
		Logger:    log,
	})
	if err := sched.Register(absenteesJob, scheduler.NewIntervalSchedule(cfg.Scheduler.DetectAbsenteesInterval)); err != nil {
		return fmt.Errorf("failed to register absentees job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("scheduler started",
		"summary_at", fmt.Sprintf("%02d:%02d", cfg.Scheduler.SummaryHour, cfg.Scheduler.SummaryMinute),
		"absentees_every", cfg.Scheduler.DetectAbsenteesInterval.String(),
	)

	// Первый прогон сразу после старта, чтобы сводка была свежей.
	if _, err := sched.RunNow(ctx, rebuildJob.Name()); err != nil {
		log.Warn("initial summary rebuild failed", "error", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
